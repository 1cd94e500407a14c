package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pdv-service/internal/cart"
	"pdv-service/internal/checkout"
	"pdv-service/internal/importer"
	"pdv-service/internal/models"
	"pdv-service/internal/receipt"
	"pdv-service/internal/service"
	"pdv-service/internal/store"
	"pdv-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xuri/excelize/v2"
)

// Handler contains HTTP handlers
type Handler struct {
	saleService  *service.SaleService
	subscription *service.SubscriptionService
	importer     *importer.Importer
	store        *store.Store
	companyName  string
	currency     string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	saleService *service.SaleService,
	subscription *service.SubscriptionService,
	imp *importer.Importer,
	st *store.Store,
	companyName, currency string,
) *Handler {
	return &Handler{
		saleService:  saleService,
		subscription: subscription,
		importer:     imp,
		store:        st,
		companyName:  companyName,
		currency:     currency,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", h.completeSale)
		v1.POST("/checkout/preview", h.previewTender)

		v1.POST("/sales/pending", h.savePending)
		v1.GET("/sales", h.listSales)
		v1.GET("/sales/:id", h.getSale)
		v1.POST("/sales/:id/cancel", h.cancelSale)
		v1.PATCH("/sales/:id/date", h.updateSaleDate)
		v1.GET("/sales/:id/receipt", h.saleReceipt)

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)

		v1.GET("/customers", h.listCustomers)
		v1.POST("/customers", h.createCustomer)

		v1.POST("/subscriptions", h.createSubscription)
		v1.POST("/subscriptions/:id/periods", h.createPeriod)
		v1.GET("/subscriptions/periods/pending", h.pendingPeriods)
		v1.GET("/subscriptions/ghosts", h.ghostSubscriptions)

		v1.POST("/imports/products", h.importProducts)
		v1.POST("/imports/customers", h.importCustomers)
		v1.GET("/imports/templates/products", h.productTemplate)
		v1.GET("/imports/templates/customers", h.customerTemplate)

		v1.GET("/wallets", h.listWallets)
		v1.GET("/wallets/:id/transactions", h.walletTransactions)
		v1.GET("/finance/categories", h.financeCategories)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// completeSale finalizes a checkout
func (h *Handler) completeSale(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.saleService.CompleteSale(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrCheckoutInProgress):
			status = http.StatusConflict
		case errors.Is(err, checkout.ErrMissingSecondaryMethod),
			errors.Is(err, checkout.ErrInvalidPaymentMethod),
			errors.Is(err, checkout.ErrEmptyCart),
			errors.Is(err, cart.ErrDiscountExceedsSubtotal),
			errors.Is(err, cart.ErrInstallmentAlreadyInCart):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":   "Checkout failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// previewTender returns the live split/change state for the entered tender
func (h *Handler) previewTender(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	preview, err := h.saleService.PreviewTender(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, cart.ErrDiscountExceedsSubtotal) || errors.Is(err, cart.ErrInstallmentAlreadyInCart) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":   "Preview failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// savePending saves the cart as a pending order
func (h *Handler) savePending(c *gin.Context) {
	var req service.PendingOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.saleService.SaveAsPending(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save pending order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listSales lists sales, optionally filtered by status
func (h *Handler) listSales(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != models.SaleStatusCompleted &&
		status != models.SaleStatusPending && status != models.SaleStatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	sales, err := h.saleService.ListSales(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list sales",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

// getSale handles get sale by ID
func (h *Handler) getSale(c *gin.Context) {
	saleID, ok := pathID(c)
	if !ok {
		return
	}

	sale, items, payments, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Sale not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sale":     sale,
		"items":    items,
		"payments": payments,
	})
}

// cancelSale transitions a sale to cancelled
func (h *Handler) cancelSale(c *gin.Context) {
	saleID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Cancellation reason is required",
			"details": err.Error(),
		})
		return
	}

	if err := h.saleService.CancelSale(c.Request.Context(), saleID, body.Reason); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to cancel sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.SaleStatusCancelled})
}

// updateSaleDate corrects the sale timestamp
func (h *Handler) updateSaleDate(c *gin.Context) {
	saleID, ok := pathID(c)
	if !ok {
		return
	}

	var body struct {
		SoldAt time.Time `json:"sold_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid date",
			"details": err.Error(),
		})
		return
	}

	if err := h.saleService.UpdateSaleDate(c.Request.Context(), saleID, body.SoldAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update sale date",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sold_at": body.SoldAt})
}

// saleReceipt renders the printable receipt for a sale
func (h *Handler) saleReceipt(c *gin.Context) {
	saleID, ok := pathID(c)
	if !ok {
		return
	}

	sale, items, payments, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Sale not found",
			"details": err.Error(),
		})
		return
	}

	var customer *models.Customer
	if sale.CustomerID != nil {
		customer, _ = h.store.GetCustomerByID(c.Request.Context(), *sale.CustomerID)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := receipt.Render(c.Writer, receipt.Data{
		CompanyName: h.companyName,
		Currency:    h.currency,
		Sale:        *sale,
		Items:       items,
		Payments:    payments,
		Customer:    customer,
	}); err != nil {
		util.GetLogger().Error("Failed to render receipt")
	}
}

// listProducts lists catalog products
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.store.GetProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// createProduct inserts a catalog product
func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if product.Name == "" || product.Price.IsNegative() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Name is required and price must not be negative"})
		return
	}

	if err := h.store.CreateProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct updates a catalog product
func (h *Handler) updateProduct(c *gin.Context) {
	productID, ok := pathID(c)
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	product.ID = productID

	if err := h.store.UpdateProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

// listCustomers lists customers
func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.store.GetCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list customers",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// createCustomer inserts a customer
func (h *Handler) createCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if customer.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Name is required"})
		return
	}

	if err := h.store.CreateCustomer(c.Request.Context(), &customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create customer",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// createSubscription registers a subscription
func (h *Handler) createSubscription(c *gin.Context) {
	var sub models.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.subscription.CreateSubscription(c.Request.Context(), &sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create subscription",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// createPeriod opens a billing period on a subscription
func (h *Handler) createPeriod(c *gin.Context) {
	subID, ok := pathID(c)
	if !ok {
		return
	}

	var period models.SubscriptionPeriod
	if err := c.ShouldBindJSON(&period); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	period.SubscriptionID = subID

	if err := h.subscription.CreatePeriod(c.Request.Context(), &period); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create period",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, period)
}

// pendingPeriods lists unpaid billing periods
func (h *Handler) pendingPeriods(c *gin.Context) {
	var customerID *int64
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id"})
			return
		}
		customerID = &id
	}

	periods, err := h.subscription.ListPendingPeriods(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list pending periods",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// ghostSubscriptions lists subscriber customers without a subscription
func (h *Handler) ghostSubscriptions(c *gin.Context) {
	ghosts, err := h.subscription.ListGhosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list ghost subscriptions",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ghosts": ghosts})
}

// importProducts handles bulk product import uploads
func (h *Handler) importProducts(c *gin.Context) {
	h.importUpload(c, "products")
}

// importCustomers handles bulk customer import uploads
func (h *Handler) importCustomers(c *gin.Context) {
	h.importUpload(c, "customers")
}

func (h *Handler) importUpload(c *gin.Context, entity string) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing upload file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to open upload",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	isCSV := strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv")

	var result *importer.Result
	switch {
	case entity == "products" && isCSV:
		result, err = h.importer.ImportProductsCSV(c.Request.Context(), file)
	case entity == "products":
		result, err = h.importer.ImportProductsXLSX(c.Request.Context(), file)
	case isCSV:
		result, err = h.importer.ImportCustomersCSV(c.Request.Context(), file)
	default:
		result, err = h.importer.ImportCustomersXLSX(c.Request.Context(), file)
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Import failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// productTemplate serves the product import template workbook
func (h *Handler) productTemplate(c *gin.Context) {
	f, err := importer.ProductTemplate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build template"})
		return
	}
	serveWorkbook(c, f, "produtos-modelo.xlsx")
}

// customerTemplate serves the customer import template workbook
func (h *Handler) customerTemplate(c *gin.Context) {
	f, err := importer.CustomerTemplate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build template"})
		return
	}
	serveWorkbook(c, f, "clientes-modelo.xlsx")
}

// listWallets lists wallets
func (h *Handler) listWallets(c *gin.Context) {
	wallets, err := h.store.GetWallets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list wallets",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// walletTransactions lists ledger entries for a wallet
func (h *Handler) walletTransactions(c *gin.Context) {
	walletID, ok := pathID(c)
	if !ok {
		return
	}

	transactions, err := h.store.GetFinanceTransactions(c.Request.Context(), walletID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list transactions",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// financeCategories lists ledger categories
func (h *Handler) financeCategories(c *gin.Context) {
	categories, err := h.store.GetFinanceCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list categories",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func serveWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		util.GetLogger().Error("Failed to write workbook")
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
