// One-shot re-segmentation sweep against the CMS, for backfills and
// operator use. Talks straight to the CMS; skips the local audit log,
// cache, and event publisher.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"segmentation_service/internal/config"
	"segmentation_service/internal/segmentation"
	"segmentation_service/internal/services"
	"segmentation_service/pkg/cms"
)

func main() {
	fmt.Println("Re-segmenting all customers...")

	// Load configuration
	cfg := config.Load()

	cmsClient := cms.NewClient(cfg.CMSAPIURL, cfg.CMSAPIToken)
	classifier := segmentation.NewClassifier(cfg.Thresholds)
	segmentationService := services.NewSegmentationService(cmsClient, classifier, nil, nil, nil, 0)

	start := time.Now()
	summary, err := segmentationService.ResegmentAllCustomers(context.Background())
	if err != nil {
		log.Fatal("Sweep failed:", err)
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("  processed: %d\n", summary.Processed)
	fmt.Printf("  changed:   %d\n", summary.Changed)
	fmt.Printf("  skipped:   %d (manual overrides)\n", summary.Skipped)
	fmt.Printf("  failed:    %d\n", summary.Failed)
	for segment, count := range summary.BySegment {
		fmt.Printf("  %-10s %d\n", segment, count)
	}
}
