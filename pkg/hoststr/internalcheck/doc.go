// Package internalcheck holds static analysis tests for the hoststr module.
//
// The tests load the module with golang.org/x/tools/go/packages and enforce
// two policies: only internal/cpython imports "C", and the runtime's raw
// deallocator is called from (*hoststr.WideString).Free and nowhere else.
package internalcheck
