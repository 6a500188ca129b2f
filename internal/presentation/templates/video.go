package templates

import (
	"html/template"
	"net/url"

	"github.com/AtRiskMedia/vsl-go/internal/domain/seo"
)

// The player starts as a thumbnail facade; funnel.js swaps in the iframe on
// click and reports the video_play beacon.
var videoPlayerTmpl = template.Must(template.New("videoPlayer").Parse(
	`<section class="vsl-video-wrap">` +
		`<div class="vsl-video" data-video-id="{{.VideoID}}" data-video-title="{{.Title}}" data-embed="{{.EmbedURL}}" role="button" tabindex="0">` +
		`<img src="{{.Thumbnail}}" data-fallback="{{.FallbackThumbnail}}" alt="{{.Title}}" loading="lazy" decoding="async">` +
		`<span class="vsl-video-play" aria-hidden="true"></span>` +
		`<h3 class="vsl-video-title">{{.Title}}</h3>` +
		`</div>` +
		`</section>`,
))

type videoPlayerData struct {
	VideoID           string
	Title             string
	EmbedURL          string
	Thumbnail         string
	FallbackThumbnail string
}

// EmbedURL is the privacy-enhanced YouTube embed for videoID.
func EmbedURL(videoID string, autoplay bool) string {
	q := url.Values{}
	q.Set("rel", "0")
	q.Set("modestbranding", "1")
	q.Set("showinfo", "0")
	q.Set("enablejsapi", "1")
	if autoplay {
		q.Set("autoplay", "1")
	}
	return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(videoID) + "?" + q.Encode()
}

// RenderVideoPlayer renders the lazy VSL player facade.
func RenderVideoPlayer(videoID, title string) string {
	return execute(videoPlayerTmpl, videoPlayerData{
		VideoID:           videoID,
		Title:             title,
		EmbedURL:          EmbedURL(videoID, true),
		Thumbnail:         seo.VideoThumbnail(videoID),
		FallbackThumbnail: "https://i.ytimg.com/vi/" + url.PathEscape(videoID) + "/hqdefault.jpg",
	})
}
