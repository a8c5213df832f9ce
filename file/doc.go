// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package file provides a uniform file-like API used to back sar's slice
// store and dardb's database file, independent of the local os package.
//
// Overview
//
// This package defines two key interfaces, Implementation and File.
//
// - Implementation provides filesystem operations, such as Open, Remove, and List
// (directory walking).
//
// - File implements operations on a file. It is created by
// Implementation.{Open,Create} calls. File is similar to go's os.File object
// but provides limited functionality.
//
// Reading and writing files
//
// The following snippet shows writing and reading a local file through the
// package's API.
//
//   import (
//    "context"
//    "ioutil"
//
//    "github.com/dar-go/dar/file"
//   )
//
//   // Caution: this code ignores all errors.
//   func WriteTest() {
//     ctx := context.Background()
//     f, err := file.Create(ctx, "/tmp/test.txt")
//     n, err = f.Writer(ctx).Write([]byte{"Hello"})
//     err = f.Close(ctx)
//   }
//
//   func ReadTest() {
//     ctx := context.Background()
//     f, err := file.Open(ctx, "/tmp/test.txt")
//     data, err := ioutil.ReadAll(f.Reader(ctx))
//     err = f.Close(ctx)
//   }
//
// To open a file for reading or writing, run file.Open(path) or
// file.Create(path). A File object does not implement an io.Reader or
// io.Writer directly. Instead, you must call File.Reader or File.Writer to
// start reading or writing. These methods are split from the File itself so
// that an application can pass different contexts to different I/O operations.
//
// File-system operations
//
// The file package provides functions similar to those in the standard os
// package. For example, file.Remove(path) removes a file, and file.Stat(path)
// provides metadata about the file.
//
// Pathname utility functions
//
// The file package also provides functions that are similar to those in the
// standard filepath package: file.Base, file.Dir, file.Join.
//
// Registering a filesystem implementation
//
// Function RegisterImplementation associates an implementation with a scheme
// ("file", etc). A local file system implementation is automatically
// available without any explicit registration; cmd/dar also registers the
// "s3" scheme (file/s3file) at startup, and a test can register a fake
// Implementation the same way.
//
// Differences from the os package
//
// The file package is similar to Go's standard os package. The differences
// are the following.
//
// - Mutations to a File are restricted to whole-file writes. There is no
// option to overwrite a part of an existing file.
//
// - All the operations take a context parameter.
//
// - file.File does not implement io.Reader nor io.Writer directly. One must
// call File.Reader or File.Writer methods to obtain a reader or writer object.
//
// Concurrency
//
// The Implementation and File provide an open-close consistency. More
// specifically, this package linearizes fileops, with a fileop defined in the
// following way: fileop is a set of operations, starting from
// Implementation.{Open,Create}, followed by read/write/stat operations on the
// file, followed by File.Close. Operations such as
// Implementation.{Stat,Remove,List} and Lister.Scan form a singleton fileop.
package file
