// Package treediff compares two directory trees and produces the ordered list
// of patches that turns the baseline tree into the revised one.
//
// The comparison is path relative and deterministic: children are visited in
// lexical order of the union of both sides. Hidden entries (a leading dot),
// conflict marker files and caller excluded paths are never diff subjects.
// A revised path that carries conflict markers is always reported as a
// conflict, whatever a plain content comparison would say.
//
// Key responsibilities:
//   - Classify every path as New, Delete, Modified or a conflict
//   - Handle file/directory type changes on either side
//   - Treat a missing root as an empty tree
package treediff
