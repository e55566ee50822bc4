package utils

import (
	"unsafe"
)

// PointerToBytes returns a byte view of the memory behind val. The view
// aliases val; it must not outlive it.
func PointerToBytes[T any](val *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(val)), unsafe.Sizeof(*val))
}

// BytesToPointer reinterprets the start of b as a *T. It panics if b is too
// short to hold a T.
func BytesToPointer[T any](b []byte) *T {
	var zero T

	if uintptr(len(b)) < unsafe.Sizeof(zero) {
		panic("utils: buffer too small for target type")
	}

	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// SizeOf returns the in-memory size of T in bytes.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// MulOverflows reports whether a*b overflows an int. Both operands must be
// non-negative.
func MulOverflows(a, b int) bool {
	if a == 0 || b == 0 {
		return false
	}

	c := a * b
	return c/b != a || c < 0
}
