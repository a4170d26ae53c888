// Package mmap provides read-only memory-mapped file access.
//
//	m, err := mmap.Open("000042.regions")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // valid until Close
//
// On unix systems the file is mapped with mmap(2) and advised for
// sequential access; elsewhere it is read into memory.
package mmap
