// Package services holds cross-cutting helpers shared by the external service
// clients: error classification markers and context annotations used for
// logging correlation.
package services
