package derive

func init() {
	MustRegister(Spec{
		Kind:        KindThumbnail,
		Marker:      "thumbnail",
		CacheDir:    "thumbnails",
		Output:      OutputBinary,
		Description: "downscaled image preview",
	})
	MustRegister(Spec{
		Kind:        KindRender,
		Marker:      "render",
		CacheDir:    "rendered",
		Suffix:      ".html",
		Output:      OutputText,
		Description: "standalone HTML rendered from a markup document",
	})
}
