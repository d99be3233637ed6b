package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// InfoHandler handles server info requests
type InfoHandler struct {
	db *gorm.DB
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(database *gorm.DB) *InfoHandler {
	return &InfoHandler{db: database}
}

// InfoResponse represents the server info response
type InfoResponse struct {
	InstanceID string `json:"instance_id"`
	ChurchName string `json:"church_name"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
}

// GetInfo godoc
// @Summary Get server information
// @Description Returns the installation's instance ID, church name and version
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Failure 500 {object} ErrorResponse
// @Router /info [get]
func (h *InfoHandler) GetInfo(c *gin.Context) {
	instanceID, err := db.GetSetting(h.db, models.SettingInstanceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to retrieve instance ID",
		})
		return
	}

	churchName, err := db.GetSetting(h.db, models.SettingChurchName)
	if err != nil {
		churchName = ""
	}

	version, _ := parseGitDescribe(Version)
	c.JSON(http.StatusOK, InfoResponse{
		InstanceID: instanceID,
		ChurchName: churchName,
		Version:    version,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	})
}
