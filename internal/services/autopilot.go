package services

import (
	"context"
	"log"

	"crosspost-backend/internal/metrics"
	"crosspost-backend/internal/models"
	"crosspost-backend/internal/platform"
)

// AutopilotService is the unattended policy: for every content group with an
// untargeted video, pick exactly one (the most recently published), compose
// default copy and schedule it against the default platform set. Runs only
// when an operator (or external cron hitting the API) asks for it.
type AutopilotService struct {
	videos           VideoStore
	targeting        *TargetingService
	composer         *Composer
	defaultPlatforms []platform.Platform
}

func NewAutopilotService(videos VideoStore, targeting *TargetingService, composer *Composer, defaultPlatforms []platform.Platform) *AutopilotService {
	return &AutopilotService{
		videos:           videos,
		targeting:        targeting,
		composer:         composer,
		defaultPlatforms: defaultPlatforms,
	}
}

func (s *AutopilotService) Run(ctx context.Context) (*models.AutopilotReport, error) {
	metrics.AutopilotRuns.Inc()

	candidates, err := s.videos.ListAutopilotCandidates(ctx, s.defaultPlatforms)
	if err != nil {
		return nil, err
	}

	report := &models.AutopilotReport{}
	for _, video := range candidates {
		content := s.composer.Compose(ctx, video)

		outcomes, err := s.targeting.TargetPlatforms(ctx, video.ID, s.defaultPlatforms, ModeSchedule, nil, content)
		if err != nil {
			// A hard failure on one video should not starve the other groups.
			log.Printf("Autopilot: targeting video %s failed: %v", video.ID, err)
			continue
		}

		report.VideosSelected++
		for _, o := range outcomes {
			if o.Status == models.OutcomeScheduled {
				report.PostsScheduled++
			}
		}
		report.Outcomes = append(report.Outcomes, outcomes...)
	}
	return report, nil
}
