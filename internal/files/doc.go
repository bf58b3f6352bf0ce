// Package files finds and stores the input files of reconciliation runs.
//
// Discovery assigns the files of a directory to input roles from their
// names. Manager keeps uploaded inputs and generated reports under the run
// work directory and removes them when a run is evicted.
package files
