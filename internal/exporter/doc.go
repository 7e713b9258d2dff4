// Package exporter writes parameter tables to CSV files.
//
// CSVWriter handles a single table: frames as rows, objects as columns,
// missing values as empty cells. ExperimentExporter writes every
// parameter of an experiment into one directory, one file per
// parameter.
package exporter
