// Package dataprocessing turns raw tracking exports into clean,
// aligned parameter tables.
//
// The stages run strictly in order: ParseSource reads one export file
// into a frame-labelled table, Merge outer-joins all source tables and
// renumbers objects, Extract splits the merged table into one table per
// measured parameter, Cleaner applies the ordered filtering passes, and
// Registry drives the derived-parameter formulas over the cleaned base.
package dataprocessing
