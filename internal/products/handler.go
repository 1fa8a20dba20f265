package products

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gallery/internal/auth"
	"gallery/internal/forms"
	"gallery/internal/models"
	"gallery/internal/render"
)

const msgEmptyFile = "The submitted file is empty."

type productForm struct {
	Name        string                `form:"name" binding:"required,max=100"`
	Description string                `form:"description" binding:"required"`
	Image       *multipart.FileHeader `form:"image" binding:"required"`
}

// productJSON is the public listing entry. The owner is reduced to id and
// username.
type productJSON struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Image            string    `json:"image"`
	ImageContentType string    `json:"image_content_type"`
	CreatedAt        time.Time `json:"created_at"`
	Owner            ownerJSON `json:"owner"`
}

type ownerJSON struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func toJSON(p models.Product) productJSON {
	return productJSON{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Image:            p.Image,
		ImageContentType: p.ImageContentType,
		CreatedAt:        p.CreatedAt,
		Owner:            ownerJSON{ID: p.Owner.ID, Username: p.Owner.Username},
	}
}

// Handler serves the product pages.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Mount registers "/" and "/new/" on r.
func (h *Handler) Mount(r gin.IRouter) {
	r.GET("/", h.List)
	r.GET("/new/", auth.RequireLogin(), h.NewForm)
	r.POST("/new/", auth.RequireLogin(), h.Create)
}

// MountAPI registers the JSON listing.
func (h *Handler) MountAPI(r gin.IRouter) {
	r.GET("/products", h.ListJSON)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		render.ServerError(c, h.log, "list products", err)
		return
	}
	render.HTML(c, http.StatusOK, "product_list.tmpl", render.ViewData{
		"Title":    "Products",
		"Products": items,
	})
}

func (h *Handler) ListJSON(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	out := make([]productJSON, 0, len(items))
	for _, p := range items {
		out = append(out, toJSON(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) NewForm(c *gin.Context) {
	render.HTML(c, http.StatusOK, "new_product.tmpl", render.ViewData{"Title": "New product"})
}

func (h *Handler) Create(c *gin.Context) {
	var in productForm
	form := forms.Bind(c, &in)
	if in.Image != nil && in.Image.Size == 0 && len(form.FieldErrors("image")) == 0 {
		form.AddError("image", msgEmptyFile)
	}

	if !form.Valid() {
		render.HTML(c, http.StatusBadRequest, "new_product.tmpl", render.ViewData{
			"Title": "New product",
			"Form":  form,
		})
		return
	}

	u := auth.CurrentUser(c)
	p, err := h.svc.Create(c.Request.Context(), NewProduct{
		OwnerID:     u.ID,
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
	})
	if err != nil {
		render.ServerError(c, h.log, "create product", err)
		return
	}

	h.log.Info("product created",
		"product_id", p.ID,
		"owner_id", p.OwnerID,
		"image", p.Image,
		"content_type", p.ImageContentType,
	)
	c.Redirect(http.StatusFound, "/")
}
