// Package files resolves mixed user input (paths, directories, open
// readers, nested lists of those) into an ordered list of readable
// sources for the pipeline.
package files
