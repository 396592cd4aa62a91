package document

import (
	"context"
	"encoding/xml"
	"html"
	"net/url"
	"strings"
)

const youtubeMarker = "youtube.com/watch?v="

// TranscriptURL is the caption endpoint; the video id is appended.
var TranscriptURL = "https://www.youtube.com/api/timedtext?lang=en&v="

// YouTubeLoader loads the English caption track of a video.
type YouTubeLoader struct {
	fetcher Fetcher
	videoID string
}

func NewYouTubeLoader(fetcher Fetcher, videoURL string) *YouTubeLoader {
	return &YouTubeLoader{fetcher: fetcher, videoID: VideoID(videoURL)}
}

// VideoID returns what follows "youtube.com/watch?v=", or the input
// unchanged when the marker is absent.
func VideoID(videoURL string) string {
	if i := strings.LastIndex(videoURL, youtubeMarker); i >= 0 {
		return videoURL[i+len(youtubeMarker):]
	}
	return videoURL
}

type transcript struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

func (l *YouTubeLoader) Load(ctx context.Context) ([]*Document, error) {
	if l.videoID == "" {
		return nil, ErrRegistry.New(ErrInvalidSource).WithDetail("reason", "missing video id")
	}
	body, err := l.fetcher.Get(ctx, TranscriptURL+url.QueryEscape(l.videoID))
	if err != nil {
		return nil, err
	}
	text, err := ParseTranscript(body)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrParseFailed, err).WithDetail("video_id", l.videoID)
	}
	return []*Document{NewDocument(text).WithMetadata(MetadataSource, l.videoID)}, nil
}

// ParseTranscript joins the caption lines of a timedtext XML payload.
func ParseTranscript(data []byte) (string, error) {
	var t transcript
	if err := xml.Unmarshal(data, &t); err != nil {
		return "", err
	}
	lines := make([]string, 0, len(t.Texts))
	for _, line := range t.Texts {
		if s := strings.TrimSpace(html.UnescapeString(line.Body)); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, " "), nil
}
