package handlers

import (
	"strings"

	"fashionhub/internal/models"
	"fashionhub/internal/repositories"
	"fashionhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductRequest is the body of a create product request.
type ProductRequest struct {
	Name          string             `json:"name" validate:"required,max=50"`
	Description   string             `json:"description" validate:"required,min=10,max=1000"`
	Price         float64            `json:"price" validate:"gte=0"`
	OriginalPrice *float64           `json:"originalPrice" validate:"omitempty,gte=0"`
	Category      string             `json:"category" validate:"required,oneof=Shirts T-Shirts Pants Jeans Dresses Skirts Jackets Sweaters Shoes Accessories Bags Underwear"`
	Subcategory   string             `json:"subcategory"`
	Brand         string             `json:"brand"`
	Sizes         []models.SizeStock `json:"sizes" validate:"omitempty,dive"`
	Colors        []string           `json:"colors"`
	Material      string             `json:"material"`
	Images        []models.Image     `json:"images" validate:"omitempty,dive"`
	Featured      bool               `json:"featured"`
	InStock       *bool              `json:"inStock"`
	Tags          []string           `json:"tags"`
	Gender        string             `json:"gender" validate:"omitempty,oneof=Men Women Unisex Kids"`
}

func (r ProductRequest) toProduct() *models.Product {
	inStock := true
	if r.InStock != nil {
		inStock = *r.InStock
	}
	return &models.Product{
		Name:          strings.TrimSpace(r.Name),
		Description:   strings.TrimSpace(r.Description),
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Brand:         r.Brand,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Material:      r.Material,
		Images:        r.Images,
		Featured:      r.Featured,
		InStock:       inStock,
		Tags:          r.Tags,
		Gender:        r.Gender,
	}
}

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. admin guards the write
// endpoints.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, admin ...fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/categories", h.HandleGetCategories)
	productRoutes.Get("/featured", h.HandleGetFeatured)
	productRoutes.Get("/category/:category", h.HandleGetByCategory)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", chain(admin, h.HandleCreateProduct)...)
	productRoutes.Put("/:id", chain(admin, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", chain(admin, h.HandleDeleteProduct)...)
}

func productPagination(p services.Page) fiber.Map {
	return fiber.Map{
		"currentPage":   p.Number,
		"totalPages":    p.TotalPages,
		"totalProducts": p.Total,
		"hasNext":       p.HasNext(),
		"hasPrev":       p.HasPrev(),
	}
}

// HandleListProducts lists the catalog with filters, sorting and paging.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Category:    c.Query("category"),
		Gender:      c.Query("gender"),
		Brand:       c.Query("brand"),
		Size:        c.Query("size"),
		Color:       c.Query("color"),
		Search:      strings.TrimSpace(c.Query("search")),
		MinPrice:    queryFloat(c, "minPrice"),
		MaxPrice:    queryFloat(c, "maxPrice"),
		InStockOnly: c.Query("inStock") == "true",
		SortBy:      c.Query("sortBy", "newest"),
		SortOrder:   c.Query("sortOrder", "desc"),
	}
	page, limit := pageParams(c, services.DefaultProductPageSize)

	products, p, err := h.service.ListProducts(c.UserContext(), filter, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"products":   products,
		"pagination": productPagination(p),
	})
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "product": product})
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	product := req.toProduct()
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch services.ProductPatch
	if err := bind(c, h.validate, &patch); err != nil {
		return respondError(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct removes a product from the catalog.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// HandleGetFeatured returns the featured products.
func (h *ProductHandler) HandleGetFeatured(c *fiber.Ctx) error {
	products, err := h.service.FeaturedProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "products": products})
}

// HandleGetByCategory lists the in-stock products of one category.
func (h *ProductHandler) HandleGetByCategory(c *fiber.Ctx) error {
	page, limit := pageParams(c, services.DefaultProductPageSize)
	products, p, err := h.service.ProductsByCategory(c.UserContext(), c.Params("category"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"products":   products,
		"pagination": productPagination(p),
	})
}

// HandleGetCategories returns the catalog facets.
func (h *ProductHandler) HandleGetCategories(c *fiber.Ctx) error {
	facets, err := h.service.Facets(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": facets})
}
