// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"regexp"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// markerPattern matches the role attribute that opens every message bubble
// in a ChatGPT page export.
var markerPattern = regexp.MustCompile(`data-message-author-role="(user|assistant)"`)

// LocateMarkers scans doc left to right and returns every role marker with
// its byte offset. A document without markers yields an empty slice.
func LocateMarkers(doc string) []types.Marker {
	matches := markerPattern.FindAllStringSubmatchIndex(doc, -1)
	markers := make([]types.Marker, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, types.Marker{
			Role:   types.Role(doc[m[2]:m[3]]),
			Offset: m[0],
		})
	}
	return markers
}

// Segment returns the span of doc owned by markers[i]: from its offset up
// to the next marker's offset, or to the end of doc for the last marker.
func Segment(doc string, markers []types.Marker, i int) string {
	end := len(doc)
	if i+1 < len(markers) {
		end = markers[i+1].Offset
	}
	return doc[markers[i].Offset:end]
}
