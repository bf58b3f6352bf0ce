// Package services sits between the HTTP handlers and the run machinery.
// RunService turns uploads into runs and renders their results; HealthService
// reports on the process.
package services
