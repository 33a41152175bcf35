package filterengine

import (
	"testing"

	"github.com/AdguardTeam/urlfilter/rules"
	"github.com/stretchr/testify/assert"
)

func TestRequestType(t *testing.T) {
	testCases := []struct {
		name   string
		accept string
		want   rules.RequestType
	}{{
		name:   "empty",
		accept: "",
		want:   rules.TypeOther,
	}, {
		name:   "any",
		accept: "*/*",
		want:   rules.TypeOther,
	}, {
		name:   "css",
		accept: "text/css,*/*;q=0.1",
		want:   rules.TypeStylesheet,
	}, {
		name:   "image",
		accept: "image/avif,image/webp,*/*",
		want:   rules.TypeImage,
	}, {
		name:   "script",
		accept: "application/javascript",
		want:   rules.TypeScript,
	}, {
		name:   "html",
		accept: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		want:   rules.TypeSubdocument,
	}, {
		name:   "font",
		accept: "font/woff2",
		want:   rules.TypeFont,
	}, {
		name:   "video",
		accept: "Video/MP4",
		want:   rules.TypeMedia,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, requestType(tc.accept))
		})
	}
}

func TestSourceURL(t *testing.T) {
	assert.Empty(t, sourceURL(""))
	assert.Equal(t, "http://news.example/", sourceURL("news.example"))
}
