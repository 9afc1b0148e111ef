// Package pathspec compiles the path table that maps resource types to the
// property paths leading from a resource of that type to its agendas, and
// resolves changed subjects to the agendas they affect.
//
// A table entry is either a full path to an agenda or a {path, next} pair
// meaning "follow path to a resource of type next, then continue with
// next's paths". Compile flattens every chain into full paths once, at
// startup, and rejects cyclic chains.
package pathspec
