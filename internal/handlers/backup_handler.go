package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/backup"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/middleware"
)

const backupURL = "/backup/"

// Backups is the part of the backup engine the views use.
type Backups interface {
	Create(ctx context.Context, a actor.Actor) (backup.Info, error)
	List() ([]backup.Info, error)
	Open(name string) (*os.File, fs.FileInfo, error)
	Delete(ctx context.Context, a actor.Actor, name string) error
}

// BackupHandler serves the superuser backup pages. Routes are expected to
// sit behind middleware.RequireSuperuser.
type BackupHandler struct {
	backups Backups
	flash   flash.Store
	log     logrus.FieldLogger
}

func NewBackupHandler(backups Backups, store flash.Store, log logrus.FieldLogger) *BackupHandler {
	return &BackupHandler{backups: backups, flash: store, log: log}
}

type backupListPage struct {
	Backups []backup.Info `json:"backups"`
	CSRF    string        `json:"csrf_token"`
}

func (h *BackupHandler) List(c *gin.Context) {
	list, err := h.backups.List()
	if err != nil {
		h.log.WithError(err).Error("failed to list backups")
		flash.Error(h.flash, c, "Error listing backups. Please check the server logs.")
		list = nil
	}
	if list == nil {
		list = []backup.Info{}
	}

	httpresp.Render(c, backupListPage{
		Backups: list,
		CSRF:    c.GetString(middleware.ContextCSRF),
	}, h.flash.Pop(c))
}

func (h *BackupHandler) Create(c *gin.Context) {
	info, err := h.backups.Create(c.Request.Context(), currentActor(c))
	switch {
	case errors.Is(err, backup.ErrExists):
		flash.Error(h.flash, c, "A backup with this name already exists. Please try again in a moment.")
	case err != nil:
		h.log.WithError(err).Error("backup creation failed")
		flash.Error(h.flash, c, "Error creating backup. Please check the server logs.")
	default:
		flash.Success(h.flash, c, "Backup created successfully! Check the backups list to download it.")
		if info.UploadErr != nil {
			flash.Warning(h.flash, c, "The off-site copy could not be uploaded. The local backup is available.")
		}
	}
	redirect(c, backupURL)
}

func (h *BackupHandler) Download(c *gin.Context) {
	name := c.Param("name")

	f, st, err := h.backups.Open(name)
	if err != nil {
		h.failure(c, err, "downloading")
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Name()))
	c.Header("Content-Type", "application/zip")
	http.ServeContent(c.Writer, c.Request, st.Name(), st.ModTime(), f)
}

func (h *BackupHandler) Delete(c *gin.Context) {
	name := c.Param("name")

	if err := h.backups.Delete(c.Request.Context(), currentActor(c), name); err != nil {
		h.failure(c, err, "deleting")
		return
	}

	flash.Success(h.flash, c, fmt.Sprintf("Backup %s deleted successfully.", name))
	redirect(c, backupURL)
}

func (h *BackupHandler) failure(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, backup.ErrInvalidName):
		flash.Error(h.flash, c, "Invalid backup filename.")
	case errors.Is(err, backup.ErrNotFound):
		flash.Error(h.flash, c, "Backup file not found.")
	default:
		h.log.WithError(err).WithField("name", c.Param("name")).Error("backup " + what + " failed")
		flash.Error(h.flash, c, fmt.Sprintf("Error %s backup. Please check the server logs.", what))
	}
	redirect(c, backupURL)
}
