// Package pathmap implements the I/O indirection of spec §5: virtualizing
// and devirtualizing file paths at the Value/filesystem boundary. The
// default mapping is identity, matching the spec's stated default.
package pathmap

// Mapper converts between the virtual path strings carried in File/
// Directory values and real filesystem paths.
type Mapper interface {
	// Devirtualize resolves a virtual path to a real filesystem path,
	// for reads.
	Devirtualize(virtual string) (string, error)
	// Virtualize converts a freshly-written real path into the virtual
	// path to store in a File/Directory value.
	Virtualize(real string) (string, error)
}

// Identity is the default mapping named in §5: virtual and real paths
// coincide.
type Identity struct{}

func (Identity) Devirtualize(virtual string) (string, error) { return virtual, nil }
func (Identity) Virtualize(real string) (string, error)       { return real, nil }
