package handler

import (
	"bytes"
	"context"
	"errors"

	"cv-hub/internal/delivery/http/middleware"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/usecase"
	"cv-hub/internal/web"

	"github.com/gofiber/fiber/v3"
)

type PDFRenderer interface {
	Enabled() bool
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// PageHandler serves the public CV as HTML and, when a renderer is available, as PDF.
type PageHandler struct {
	uc   usecase.CVUsecase
	page *web.Page
	pdf  PDFRenderer
}

func NewPageHandler(uc usecase.CVUsecase, page *web.Page, pdf PDFRenderer) *PageHandler {
	return &PageHandler{uc: uc, page: page, pdf: pdf}
}

func (h *PageHandler) publicDoc(c fiber.Ctx) (cv.CV, error) {
	pub, err := h.uc.GetPublic(c.Context())
	if err != nil {
		return cv.CV{}, mapCVUsecaseError(err)
	}
	doc, err := cv.Decode(pub.Body)
	if err != nil {
		return cv.CV{}, middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}
	return doc, nil
}

func (h *PageHandler) GetPage(c fiber.Ctx) error {
	doc, err := h.publicDoc(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.page.Render(&buf, doc, c.Query("skill")); err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (h *PageHandler) GetPDF(c fiber.Ctx) error {
	if h.pdf == nil || !h.pdf.Enabled() {
		return middleware.NewAppError(fiber.StatusNotFound, "PDF export is disabled", nil)
	}

	doc, err := h.publicDoc(c)
	if err != nil {
		return err
	}
	html, err := h.page.RenderPrintable(doc)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}

	out, err := h.pdf.Render(c.Context(), html)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return middleware.NewAppError(fiber.StatusGatewayTimeout, "PDF rendering timed out", nil)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, "", err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="cv.pdf"`)
	return c.Send(out)
}
