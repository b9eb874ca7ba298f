package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mmdatafocus/stockcount_archiver/config"
	"github.com/mmdatafocus/stockcount_archiver/graphapi"
	"github.com/mmdatafocus/stockcount_archiver/models"
	"github.com/mmdatafocus/stockcount_archiver/utils"
	"github.com/mmdatafocus/stockcount_archiver/workflow"
)

type archiveRequest struct {
	Data []models.ReconciliationRecord `json:"data"`
}

// archiveHandler receives the comparison results from the counting frontend
// and runs the archive workflow. Input problems are rejected before any
// network call; everything downstream maps to a single 500 shape.
func archiveHandler(client *graphapi.Client, cfg *config.SharePointConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())

		var req archiveRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "No data received to archive."})
			return
		}

		result, err := workflow.RunArchiveWorkflow(c.Request.Context(), client, cfg, req.Data)
		if err != nil {
			config.LogError(logger, "archive.go", "archiveHandler", "RunArchiveWorkflow", map[string]any{
				"correlation_id": correlationId,
				"records":        len(req.Data),
				"site_name":      cfg.SiteName,
			}, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred.", "error": err.Error()})
			return
		}

		logger.WithFields(logrus.Fields{
			"correlation_id": correlationId,
			"file_name":      result.FileName,
			"site_id":        result.SiteId,
			"records":        len(req.Data),
		}).Info("archive uploaded")

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Successfully archived %s to SharePoint.", result.FileName),
		})
	}
}
