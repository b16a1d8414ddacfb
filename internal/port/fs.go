package port

type FileSystem interface {
	Exists(path string) bool

	IsDir(path string) bool
}

type AssetWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
