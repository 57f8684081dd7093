package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/response"
	"rentalhub/pkg/utils"
)

const maxUploadSize = 5 << 20

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

func (h *ListingHandler) ListListings(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	listings, total, err := h.listingUseCase.ListListings(c.Request().Context(), c.QueryParam("category"), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, p.Page, p.PageSize)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.GetListing(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) ListMyListings(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	listings, total, err := h.listingUseCase.ListMyListings(c.Request().Context(), middleware.UID(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, p.Page, p.PageSize)
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req usecase.ListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), middleware.UID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req usecase.ListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.UpdateListing(c.Request().Context(), id, middleware.UID(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.listingUseCase.DeleteListing(c.Request().Context(), id, middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Product deleted successfully"})
}

func (h *ListingHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	file, contentType, err := formFile(c, "image")
	if err != nil {
		return response.Error(c, err)
	}
	defer file.Close()

	listing, err := h.listingUseCase.AddImage(c.Request().Context(), id, middleware.UID(c), file, contentType)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

// formFile opens the named multipart file, bounded to maxUploadSize.
func formFile(c echo.Context, field string) (multipart.File, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", errors.BadRequest("File is required in field '"+field+"'", err)
	}
	if header.Size > maxUploadSize {
		return nil, "", errors.BadRequest("File is too large (max 5MB)", nil)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", errors.BadRequest("Failed to read uploaded file", err)
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = sniffContentType(file)
	}
	return file, contentType, nil
}

func sniffContentType(file multipart.File) string {
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	file.Seek(0, io.SeekStart)
	mediaType, _, _ := strings.Cut(mimetype.Detect(buf[:n]).String(), ";")
	return mediaType
}
