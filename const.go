package imgblend

const (
	defaultJPEGQuality  = 95
	defaultPreviewWidth = 256
)
