package workflow

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mmdatafocus/stockcount_archiver/config"
	"github.com/mmdatafocus/stockcount_archiver/graphapi"
	"github.com/mmdatafocus/stockcount_archiver/models"
	"github.com/mmdatafocus/stockcount_archiver/utils"
)

const csvHeader = "ItemID,SystemBalance,InitialPhysical,FinalPhysical,Difference,Status,RecountHistory"

const mirrorObjectPrefix = "stock-count-archives"

type ArchiveResult struct {
	FileName string
	SiteId   string
}

// RunArchiveWorkflow is the whole pipeline for one request: authenticate,
// resolve the destination site, serialize the batch, upload. Any step failing
// aborts the run; nothing is retried here.
func RunArchiveWorkflow(ctx context.Context, client *graphapi.Client, cfg *config.SharePointConfig, records []models.ReconciliationRecord) (*ArchiveResult, error) {
	if err := client.Authenticate(); err != nil {
		return nil, err
	}

	siteId, err := client.ResolveSiteId(ctx, cfg.SiteName)
	if err != nil {
		return nil, err
	}

	csvData := GenerateCSV(records)
	fileName := ArchiveFileName(time.Now())

	if err := client.UploadDriveItem(ctx, siteId, cfg.LibraryName, fileName, []byte(csvData), "text/csv"); err != nil {
		return nil, err
	}

	// Best-effort GCS mirror for in-house reporting. SharePoint already has
	// the file at this point, so a mirror failure must not fail the request.
	if bucket := config.ArchiveMirrorBucket(); bucket != "" {
		objectName := path.Join(mirrorObjectPrefix, fileName)
		if err := utils.UploadBytesToGCS(ctx, bucket, objectName, []byte(csvData), "text/csv"); err != nil {
			config.GetLogger().WithFields(logrus.Fields{
				"module":   "workflow",
				"funcName": "RunArchiveWorkflow",
				"bucket":   bucket,
				"object":   objectName,
			}).Warn("failed to mirror archive to GCS: " + err.Error())
		}
	}

	return &ArchiveResult{FileName: fileName, SiteId: siteId}, nil
}

// GenerateCSV renders the batch in the fixed archive layout: one header line,
// one line per record in input order, newline-joined with no trailing newline.
// Quantities are written exactly as the caller sent them; recount history is
// pipe-joined into one quoted field (e.g. "150|145").
func GenerateCSV(records []models.ReconciliationRecord) string {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, csvHeader)

	for _, r := range records {
		history := make([]string, len(r.RecountHistory))
		for i, qty := range r.RecountHistory {
			history[i] = qty.String()
		}
		rows = append(rows, fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s",
			csvQuote(r.ItemId),
			r.SystemQty.String(),
			r.InitialPhysicalQty.String(),
			r.FinalPhysicalQty.String(),
			r.Difference.String(),
			csvQuote(string(r.Status)),
			csvQuote(strings.Join(history, "|")),
		))
	}

	return strings.Join(rows, "\n")
}

// csvQuote wraps a field in double quotes, doubling any embedded quote so
// item names like `5" bolt` survive the round trip.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ArchiveFileName derives the artifact name for one upload:
// Inventory-Comparison-<UTC date>-<random base36 token>.csv. The token only
// has to keep same-day uploads from colliding.
func ArchiveFileName(now time.Time) string {
	date := now.UTC().Format("2006-01-02")
	return fmt.Sprintf("Inventory-Comparison-%s-%s.csv", date, randomToken())
}

func randomToken() string {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; keep a usable
		// fallback anyway rather than panicking mid-upload.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
}
