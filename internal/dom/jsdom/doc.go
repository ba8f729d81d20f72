// Package jsdom implements the dom contract over syscall/js for the
// js/wasm build. Outside that target the package is empty.
package jsdom
