// Package mmap provides read-only memory-mapped file access.
//
// The container reader maps the whole input file once and keeps the mapping
// alive for the duration of a pipeline run. All typed access into the mapped
// region goes through bounds-checked decoding; the raw bytes are never
// reinterpreted in place.
//
// Platform support:
//
//   - Unix (Linux, macOS, BSD): mmap(2) via golang.org/x/sys/unix
//   - Windows: CreateFileMapping/MapViewOfFile
//
// Close is idempotent. Callers must not retain views into Data after Close.
package mmap
