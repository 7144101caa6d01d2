// Package buffer provides allocation-free multi-channel FIFOs and the
// sub-buffer scheduler that decouples the host block size from the fixed
// processing quantum of the engine.
package buffer
