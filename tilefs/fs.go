package tilefs

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// FS exposes an Adapter through bazil.org/fuse.
type FS struct {
	adapter *Adapter
}

var (
	_ fs.FS                 = (*FS)(nil)
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)
	_ fs.Node               = (*File)(nil)
	_ fs.NodeOpener         = (*File)(nil)
	_ fs.HandleReader       = (*File)(nil)
)

// NewFS wraps adapter for serving.
func NewFS(adapter *Adapter) *FS {
	return &FS{adapter: adapter}
}

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: Path{Depth: DepthRoot}}, nil
}

// Dir is the root, a zoom directory or a column directory.
type Dir struct {
	fs   *FS
	path Path
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := d.fs.adapter.stat(ctx, d.path)
	if err != nil {
		return errno(err)
	}
	fillAttr(a, st)
	return nil
}

// Lookup resolves name one level below d. Names that parse to any other
// depth, like "abc" inside a column directory, do not exist.
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child, err := d.path.Child(name)
	if err != nil {
		return nil, errno(err)
	}
	if child.Depth != d.path.Depth+1 {
		return nil, errno(ErrNotFound)
	}

	st, err := d.fs.adapter.stat(ctx, child)
	if err != nil {
		return nil, errno(err)
	}
	if st.IsDir() {
		return &Dir{fs: d.fs, path: child}, nil
	}
	return &File{fs: d.fs, path: child}, nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.fs.adapter.readDir(ctx, d.path)
	if err != nil {
		return nil, errno(err)
	}

	dirents := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		typ := fuse.DT_File
		if e.Dir {
			typ = fuse.DT_Dir
		}
		dirents = append(dirents, fuse.Dirent{Name: e.Name, Type: typ})
	}
	return dirents, nil
}

// File is a tile. It serves as its own handle since reads carry no state.
type File struct {
	fs   *FS
	path Path
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := f.fs.adapter.stat(ctx, f.path)
	if err != nil {
		return errno(err)
	}
	fillAttr(a, st)
	return nil
}

func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if err := f.fs.adapter.open(f.path, int(req.Flags)); err != nil {
		return nil, errno(err)
	}
	return f, nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := f.fs.adapter.read(ctx, f.path, req.Size, req.Offset)
	if err != nil {
		return errno(err)
	}
	resp.Data = data
	return nil
}

func fillAttr(a *fuse.Attr, st Attr) {
	a.Mode = st.Mode
	a.Nlink = st.Nlink
	a.Size = st.Size
}
