package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/DocAssist/internal/adapter"
	"github.com/akolanti/DocAssist/internal/adapter/utils"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
	"github.com/akolanti/DocAssist/internal/rag/ingest"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

type newJobData struct {
	id             string
	userId         string
	sessionId      string
	traceId        string
	documentName   string
	documentType   string
	documentSource string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetStatusHandler godoc
// @Summary      Get ingestion job status
// @Description  Retrieves the current status of an ingestion job using its ID.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Security     BearerAuth
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceIdFrom(r.Context()))
	if !isFound || result.UserId != userIdFrom(r.Context()) {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a PDF, DOCX or TXT file via multipart/form-data, stores it temporarily and queues an ingestion job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document   formData  file    true   "The file to upload (max 10MB)"
// @Param        sessionId  formData  string  false  "Session the upload belongs to"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns job id and status url"
// @Failure      400  {object}  api.JobResponse "Missing file, empty file, unsupported type or too large"
// @Failure      500  {object}  api.JobResponse "Storage or write error"
// @Security     BearerAuth
// @Router       /documents [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := logRH.FromContext(r.Context())

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		log.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	// leave room for the multipart envelope so ValidateUpload reports oversize files
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusBadRequest, "", ingest.ErrFileTooLarge.Error())
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sessionId := r.FormValue("sessionId")
	if sessionId != "" {
		if err := chatModel.ValidateSessionID(sessionId); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
			return
		}
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", ingest.ErrMissingFilename.Error())
		return
	}
	defer fileReader.Close()

	if err := ingest.ValidateUpload(fileMetadata.Filename, fileMetadata.Size); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, fileMetadata.Filename, err.Error())
		return
	}

	// the extension picks the extractor, so the temp name keeps it
	ext := strings.ToLower(filepath.Ext(fileMetadata.Filename))
	destinationFileWriter, err := os.CreateTemp(targetDir, "upload-*"+ext)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, fileMetadata.Filename, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		_ = os.Remove(destinationFileWriter.Name())
		WriteErrorResponse(w, http.StatusInternalServerError, fileMetadata.Filename, "Write error")
		return
	}

	newJob := newJobData{
		id:             utils.GetNewUUID(),
		userId:         userIdFrom(r.Context()),
		sessionId:      sessionId,
		traceId:        traceIdFrom(r.Context()),
		documentName:   fileMetadata.Filename,
		documentType:   strings.TrimPrefix(ext, "."),
		documentSource: destinationFileWriter.Name(),
	}
	CreateNewJob(newJob)
	log.Debug("Upload queued", "jobId", newJob.id, "bytes", fileMetadata.Size)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}
