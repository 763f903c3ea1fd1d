package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	profileUC "github.com/khoahotran/profile-portal/internal/application/usecase/profile"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

const (
	multipartMemory  = 8 << 20
	maxJSONBodyBytes = 1 << 20
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	bioUseCase     *profileUC.GenerateBioUseCase
	stager         *UploadStager
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, bioUC *profileUC.GenerateBioUseCase, stager *UploadStager, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		bioUseCase:     bioUC,
		stager:         stager,
		logger:         log,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), profileUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

// UpdateProfile accepts multipart/form-data (fields plus optional
// profilePhoto and resume files) or a JSON body without files.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	var (
		req    UpdateProfileRequest
		staged []upload.StagedFile
	)
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.stager.MaxRequestBytes())
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.Error(apperror.NewTooLarge("multipart body exceeds limit"))
				return
			}
			c.Error(apperror.NewInvalidInput("invalid multipart body", err))
			return
		}
		defer c.Request.MultipartForm.RemoveAll()

		var err error
		staged, err = h.stager.Stage(c.Request.MultipartForm.File)
		if err != nil {
			c.Error(err)
			return
		}
		defer discardAll(staged)
		req = formFromMultipart(c.Request.MultipartForm.Value)
	} else {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes)
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(bindError(err))
			return
		}
	}

	req.normalize()
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		c.Error(bindError(err))
		return
	}
	input, err := req.ToInput(userID)
	if err != nil {
		c.Error(err)
		return
	}
	input.Files = staged

	output, err := h.profileUseCase.ExecuteUpdateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	resp := gin.H{"message": "Profile updated successfully"}
	if output.Profile != nil {
		resp["profile"] = ToProfileDTO(output.Profile)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	if err := h.profileUseCase.ExecuteDeleteProfile(c.Request.Context(), profileUC.DeleteProfileInput{UserID: userID}); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted successfully"})
}

func (h *ProfileHandler) GenerateBio(c *gin.Context) {
	var req generateBioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	output, err := h.bioUseCase.Execute(c.Request.Context(), profileUC.GenerateBioInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Skills:          req.Skills,
		FieldOfStudy:    req.FieldOfStudy,
		EducationLevel:  req.EducationLevel,
		University:      req.University,
		ExperienceLevel: req.ExperienceLevel,
		Certificates:    req.Certificates,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bio": output.Bio})
}
