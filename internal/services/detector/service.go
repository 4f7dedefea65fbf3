package detector

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// detectionPrompt instructs the vision model to answer with nothing but
// the quarter label. The response is validated; anything that does not
// parse is treated as "no change".
const detectionPrompt = `Esta é uma captura de tela da central de resultados de uma empresa listada.
Identifique o trimestre mais recente divulgado na página.
Responda APENAS com o rótulo do trimestre no formato NTAA, por exemplo: 1T25.
Se não for possível identificar, responda apenas: INDEFINIDO.`

// Service asks the vision collaborator which quarter the disclosures page
// currently shows. The collaborator is unreliable by contract: an empty or
// garbled answer is reported as models.ErrNoQuarterDetected, never as a
// quarter change.
type Service struct {
	browser interfaces.BrowserService
	vision  interfaces.VisionService
	logger  arbor.ILogger
}

// NewService creates a quarter-change detection service
func NewService(browser interfaces.BrowserService, vision interfaces.VisionService, logger arbor.ILogger) *Service {
	return &Service{
		browser: browser,
		vision:  vision,
		logger:  logger,
	}
}

// DetectQuarter renders the page, classifies the screenshot, and returns
// the validated quarter label.
func (s *Service) DetectQuarter(ctx context.Context, pageURL string) (models.QuarterLabel, error) {
	screenshot, err := s.browser.CaptureScreenshot(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to capture disclosures page: %w", err)
	}

	raw, err := s.vision.AnalyzeImage(ctx, screenshot, "image/png", detectionPrompt)
	if err != nil {
		return "", fmt.Errorf("visual classification failed: %w", err)
	}

	label, err := models.ParseQuarterLabel(raw)
	if err != nil {
		s.logger.Warn().
			Str("response", raw).
			Msg("Vision response did not contain a usable quarter label")
		return "", err
	}

	s.logger.Debug().
		Str("quarter", label.String()).
		Msg("Quarter label detected")

	return label, nil
}
