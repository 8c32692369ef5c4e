package frontend

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jo-hoe/aisign/internal/client"
	"github.com/jo-hoe/aisign/internal/core"
	"github.com/jo-hoe/aisign/internal/verdict"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName   = "index.html"
	EmbedPageName  = "embed.html"
	VerifyPageName = "verify.html"

	mimePNG          = "image/png"
	downloadFilename = "ai_signed_image"

	alertNoFile      = "Please select an image"
	alertBusy        = "A signed image is already being generated"
	alertEmbedFailed = "Failed to generate signed image"
	alertVerifyFail  = "Failed to verify image"
)

type FrontendService struct {
	config      *core.ServiceConfig
	imageClient *client.ImageClient
	store       ImageStore
	flows       *flowTracker
	icon        *favicon
}

type pageData struct {
	Profiles []core.EmbedProfile
	Profile  core.EmbedProfile
	Button   buttonView
	Result   any
	Contexts []string
}

type embedResultView struct {
	Visible     bool
	Profile     core.EmbedProfile
	DownloadURL string
	Button      buttonView
}

type verifyResultView struct {
	Visible         bool
	DetectionStatus string
	Confidence      string
	Decision        string
	DecisionClass   string
	Reason          string
}

func NewFrontendService(config *core.ServiceConfig) (*FrontendService, error) {
	store, err := NewImageStore(config.Frontend.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signed image store: %w", err)
	}
	timeout := time.Duration(config.Frontend.TimeoutSeconds) * time.Second
	return newFrontendService(config, store, client.NewImageClient(timeout)), nil
}

func newFrontendService(config *core.ServiceConfig, store ImageStore, imageClient *client.ImageClient) *FrontendService {
	return &FrontendService{
		config:      config,
		imageClient: imageClient,
		store:       store,
		flows:       newFlowTracker(),
		icon:        newFavicon(iconSVG, iconPNGSize),
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	// the backend owns "/" when both run in one process
	if service.config.Mode == core.ModeFrontend {
		e.GET("/", service.rootRedirectHandler)
	}
	e.GET("/"+MainPageName, service.indexHandler)
	e.GET("/"+EmbedPageName, service.embedPageHandler)
	e.GET("/"+VerifyPageName, service.verifyPageHandler)

	e.POST("/htmx/embed/:profile", service.htmxEmbedHandler)
	e.POST("/htmx/verify", service.htmxVerifyHandler)
	e.GET("/download/:profile", service.downloadHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
}

func (service *FrontendService) Close() error {
	return service.store.Close()
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, pageData{Profiles: service.config.Frontend.Embed})
}

func (service *FrontendService) embedPageHandler(ctx echo.Context) error {
	profile, ok := service.profile(ctx.QueryParam("profile"))
	if !ok {
		slog.Warn("embedPageHandler: unknown profile", "status", http.StatusNotFound, "profile", ctx.QueryParam("profile"))
		return ctx.String(http.StatusNotFound, "Unknown embed profile")
	}

	state := service.flows.State(storeKey(sessionID(ctx), profile.Name))
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, EmbedPageName, pageData{
		Profiles: service.config.Frontend.Embed,
		Profile:  profile,
		Button:   buttonFor(state, false),
		Result:   embedResultView{Profile: profile},
	})
}

func (service *FrontendService) htmxEmbedHandler(ctx echo.Context) error {
	profile, ok := service.profile(ctx.Param("profile"))
	if !ok || ctx.Param("profile") == "" {
		return ctx.String(http.StatusNotFound, "Unknown embed profile")
	}
	session := sessionID(ctx)
	key := storeKey(session, profile.Name)
	file := service.selectedFile(ctx)

	if file == nil {
		// the client refuses before any request is made
		_, err := service.imageClient.SubmitImage(ctx.Request().Context(), profile.Endpoint, file, client.Policy{CheckStatus: profile.CheckStatus})
		return service.embedFailure(ctx, profile, key, err, http.StatusBadRequest, alertNoFile)
	}

	if !service.flows.Begin(key, profile.Guard) {
		slog.Warn("htmxEmbedHandler: rejected concurrent submission", "status", http.StatusConflict, "profile", profile.Name)
		service.setAlert(ctx, alertBusy)
		return ctx.Render(http.StatusConflict, "embed_result", embedResultView{Profile: profile})
	}

	blob, err := service.imageClient.SubmitImage(ctx.Request().Context(), profile.Endpoint, file, client.Policy{CheckStatus: profile.CheckStatus})
	if err == nil && len(blob.Data) > 0 {
		err = service.store.Put(ctx.Request().Context(), key, blob)
	} else if err == nil {
		err = errors.New("empty response body")
	}
	if err != nil {
		service.flows.Finish(key, false)
		return service.embedFailure(ctx, profile, key, err, http.StatusBadGateway, alertEmbedFailed)
	}

	state := service.flows.Finish(key, true)
	slog.Info("htmxEmbedHandler: signed image received",
		"profile", profile.Name,
		"state", state,
		"content_type", blob.ContentType,
		"size_bytes", len(blob.Data))

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "embed_result", embedResultView{
		Visible:     true,
		Profile:     profile,
		DownloadURL: fmt.Sprintf("/download/%s?ts=%d", profile.Name, time.Now().UnixNano()),
		Button:      buttonFor(Idle, profile.Guard),
	})
}

// embedFailure reports or swallows a failed embed depending on the profile.
// A missing file is always reported.
func (service *FrontendService) embedFailure(ctx echo.Context, profile core.EmbedProfile, key string, err error, status int, message string) error {
	noFile := errors.Is(err, client.ErrNoFile)
	if !noFile && !profile.ReportErrors {
		slog.Error("htmxEmbedHandler: embed failed", "profile", profile.Name, "error", err)
		return ctx.NoContent(http.StatusNoContent)
	}

	if !noFile {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			message = fmt.Sprintf("%s: %s", message, statusErr.Message)
		}
		slog.Error("htmxEmbedHandler: embed failed", "status", status, "profile", profile.Name, "error", err)

		// the download section is hidden, so the previous image goes too
		if rerr := service.store.Release(ctx.Request().Context(), key); rerr != nil {
			slog.Warn("htmxEmbedHandler: failed to release signed image", "profile", profile.Name, "error", rerr)
		}
	}

	service.setAlert(ctx, message)
	return ctx.Render(status, "embed_result", embedResultView{
		Profile: profile,
		Button:  buttonFor(Idle, profile.Guard),
	})
}

func (service *FrontendService) downloadHandler(ctx echo.Context) error {
	profile, ok := service.profile(ctx.Param("profile"))
	if !ok || ctx.Param("profile") == "" {
		return ctx.String(http.StatusNotFound, "Unknown embed profile")
	}

	blob, err := service.store.Get(ctx.Request().Context(), storeKey(sessionID(ctx), profile.Name))
	if errors.Is(err, ErrBlobNotFound) {
		return ctx.String(http.StatusNotFound, "No signed image available")
	}
	if err != nil {
		slog.Error("downloadHandler: failed to load signed image", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load signed image")
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	service.setNoCache(ctx)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+downloadFilename+`"`)
	return ctx.Blob(http.StatusOK, contentType, blob.Data)
}

func (service *FrontendService) verifyPageHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, VerifyPageName, pageData{
		Profiles: service.config.Frontend.Embed,
		Contexts: service.config.Frontend.Verify.Contexts,
		Result:   verifyResultView{},
	})
}

func (service *FrontendService) htmxVerifyHandler(ctx echo.Context) error {
	verify := service.config.Frontend.Verify
	file := service.selectedFile(ctx)

	result, err := service.imageClient.Verify(ctx.Request().Context(), verify.Endpoint, file, ctx.FormValue("context"))
	if errors.Is(err, client.ErrNoFile) {
		service.setAlert(ctx, alertNoFile)
		return ctx.Render(http.StatusBadRequest, "verify_result", verifyResultView{})
	}
	if err != nil {
		if !verify.ReportErrors {
			slog.Error("htmxVerifyHandler: verification failed", "error", err)
			return ctx.NoContent(http.StatusNoContent)
		}
		slog.Error("htmxVerifyHandler: verification failed", "status", http.StatusBadGateway, "error", err)
		service.setAlert(ctx, alertVerifyFail)
		return ctx.Render(http.StatusBadGateway, "verify_result", verifyResultView{})
	}

	decision := result.Verdict()
	if decision == verdict.Unknown {
		slog.Warn("htmxVerifyHandler: unrecognized decision", "decision", result.Decision)
	}
	return ctx.Render(http.StatusOK, "verify_result", verifyResultView{
		Visible:         true,
		DetectionStatus: result.DetectionStatus,
		Confidence:      result.Confidence.String(),
		Decision:        result.Decision,
		DecisionClass:   decision.CSSClass(),
		Reason:          result.Reason,
	})
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	setLongCache(ctx)
	return ctx.Blob(http.StatusOK, "image/svg+xml", service.icon.svg)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	data, err := service.icon.PNG()
	if err != nil {
		slog.Error("iconPNGHandler: failed to render icon", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	setLongCache(ctx)
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

// setLongCache marks static assets cacheable for a week
func setLongCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
}

// selectedFile returns the uploaded image, or nil when none was chosen
func (service *FrontendService) selectedFile(ctx echo.Context) *client.File {
	header, err := ctx.FormFile("image")
	if err != nil || header.Filename == "" {
		return nil
	}
	file, err := readFormFile(header)
	if err != nil {
		slog.Error("selectedFile: failed to read uploaded file", "error", err, "filename", header.Filename)
		return nil
	}
	return file
}

func readFormFile(header *multipart.FileHeader) (*client.File, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("readFormFile: failed to close uploaded file reader", "error", cerr, "filename", header.Filename)
		}
	}()
	return client.NewFile(header.Filename, header.Header.Get(echo.HeaderContentType), src)
}

func (service *FrontendService) profile(name string) (core.EmbedProfile, bool) {
	if name == "" && len(service.config.Frontend.Embed) > 0 {
		return service.config.Frontend.Embed[0], true
	}
	return service.config.Frontend.Profile(name)
}

func (service *FrontendService) setAlert(ctx echo.Context, message string) {
	trigger, err := json.Marshal(map[string]string{"showAlert": message})
	if err != nil {
		slog.Error("setAlert: failed to encode trigger", "error", err)
		return
	}
	ctx.Response().Header().Set("HX-Trigger", string(trigger))
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
