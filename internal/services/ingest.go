package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	ytdl "github.com/kkdai/youtube/v2"
	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"crosspost-backend/internal/models"
)

// IngestService pulls a playlist from the source platform into the video
// library. Metadata resolution is a fallback chain: Data API v3 when a key is
// configured, the keyless player client otherwise, oEmbed as a last resort.
type IngestService struct {
	yt         *youtube.Service
	dl         *ytdl.Client
	httpClient *http.Client
	videos     VideoStore
}

func NewIngestService(ctx context.Context, apiKey string, videos VideoStore) (*IngestService, error) {
	s := &IngestService{
		dl:         &ytdl.Client{},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		videos:     videos,
	}

	if apiKey == "" {
		log.Println("⚠ Ingest running without a YouTube API key (keyless metadata only)")
		return s, nil
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	s.yt = svc
	return s, nil
}

// IngestPlaylist upserts every video of the playlist and returns how many
// were stored. Videos are read-only inputs from here on: re-ingesting
// refreshes metadata but never touches posts.
func (s *IngestService) IngestPlaylist(ctx context.Context, playlistID string) (int, error) {
	if playlistID == "" {
		return 0, &ValidationError{Fields: map[string]string{"playlist_id": "Playlist ID is required"}}
	}
	if s.yt == nil {
		return 0, fmt.Errorf("playlist ingestion requires a YouTube API key")
	}

	ingested := 0
	pageToken := ""
	for {
		resp, err := s.yt.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(50).
			PageToken(pageToken).
			Context(ctx).Do()
		if err != nil {
			return ingested, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
		}

		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			ids = append(ids, item.ContentDetails.VideoId)
		}

		n, err := s.ingestByIDs(ctx, playlistID, ids)
		ingested += n
		if err != nil {
			return ingested, err
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ingested, nil
		}
	}
}

func (s *IngestService) ingestByIDs(ctx context.Context, playlistID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	resp, err := s.yt.Videos.List([]string{"snippet"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to load video metadata: %w", err)
	}

	ingested := 0
	for _, item := range resp.Items {
		video := &models.Video{
			ExternalID:   item.Id,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Tags:         item.Snippet.Tags,
			GroupID:      playlistID,
			CanonicalURL: watchURL(item.Id),
		}
		if published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = published
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			thumb := item.Snippet.Thumbnails.High.Url
			video.ThumbnailURL = &thumb
		}

		if err := s.videos.Upsert(ctx, video); err != nil {
			return ingested, err
		}
		ingested++
	}
	return ingested, nil
}

// IngestVideo upserts a single video, usable without an API key.
func (s *IngestService) IngestVideo(ctx context.Context, videoID, groupID string) (*models.Video, error) {
	video := &models.Video{
		ExternalID:   videoID,
		GroupID:      groupID,
		CanonicalURL: watchURL(videoID),
	}

	if meta, err := s.dl.GetVideoContext(ctx, videoID); err == nil {
		video.Title = meta.Title
		video.Description = meta.Description
		video.PublishedAt = meta.PublishDate
		if len(meta.Thumbnails) > 0 {
			thumb := meta.Thumbnails[len(meta.Thumbnails)-1].URL
			video.ThumbnailURL = &thumb
		}
	} else if oembed, oerr := s.fetchOEmbed(ctx, videoID); oerr == nil {
		video.Title = oembed.Title
		thumb := oembed.ThumbnailURL
		video.ThumbnailURL = &thumb
	} else {
		return nil, fmt.Errorf("no metadata source for video %s: %v / %v", videoID, err, oerr)
	}

	if video.PublishedAt.IsZero() {
		video.PublishedAt = time.Now()
	}
	if err := s.videos.Upsert(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *IngestService) fetchOEmbed(ctx context.Context, videoID string) (*oembedResponse, error) {
	url := "https://www.youtube.com/oembed?url=" + watchURL(videoID) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned %d", resp.StatusCode)
	}

	var out oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
