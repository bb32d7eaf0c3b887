// Package logging builds the structured zap loggers used by the simulator.
package logging
