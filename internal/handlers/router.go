package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/manufacturing-backoffice/internal/metrics"
	"github.com/yukikurage/manufacturing-backoffice/internal/middleware"
	"github.com/yukikurage/manufacturing-backoffice/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Window URLs guarding each route group. They match the seeded windows.
const (
	WindowSetupWindows       = "/general/setup/windows"
	WindowSetupRoles         = "/general/setup/roles"
	WindowSetupUsers         = "/general/setup/users"
	WindowSetupOrganizations = "/general/setup/organizations"
	WindowOrders             = "/orders"
	WindowWorkOrders         = "/work-orders"
	WindowDeliveryOrders     = "/delivery-orders"
	WindowRawMaterials       = "/raw-materials"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	DB             *gorm.DB
	Auth           *services.AuthService
	Sessions       *services.SessionService
	Permissions    *services.PermissionService
	Roles          *services.RoleService
	Users          *services.UserService
	Organizations  *services.OrganizationService
	Orders         *services.OrderService
	WorkOrders     *services.WorkOrderService
	DeliveryOrders *services.DeliveryOrderService
	RawMaterials   *services.RawMaterialService
	StockThreshold float64
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with every route of the back office.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger), middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	authHandler := NewAuthHandler(d.Auth, d.Permissions, d.Logger)
	roleHandler := NewRoleHandler(d.Roles, d.Logger)
	userHandler := NewUserHandler(d.Users, d.Logger)
	orgHandler := NewOrganizationHandler(d.Organizations, d.Logger)
	orderHandler := NewOrderHandler(d.Orders, d.Logger)
	workOrderHandler := NewWorkOrderHandler(d.WorkOrders, d.Logger)
	deliveryHandler := NewDeliveryOrderHandler(d.DeliveryOrders, d.Logger)
	materialHandler := NewRawMaterialHandler(d.RawMaterials, d.StockThreshold, d.Logger)

	r.GET("/health", Health(d.DB))
	r.POST("/login", authHandler.Login)

	authed := r.Group("")
	authed.Use(middleware.RequireAuth(d.Sessions))
	window := func(url string) *gin.RouterGroup {
		return authed.Group(url, middleware.RequireWindow(d.Permissions, url, d.Logger))
	}

	authed.POST("/logout", authHandler.Logout)
	authed.GET("/profile", authHandler.Profile)
	authed.POST("/validation/permit/:windowId", authHandler.Permit)
	// Every signed-in user loads their own menu; no window grant needed.
	authed.GET(WindowSetupWindows, authHandler.Menu)

	roles := window(WindowSetupRoles)
	{
		roles.GET("", roleHandler.ListRoles)
		roles.POST("", roleHandler.CreateRole)
		roles.GET("/windows", roleHandler.ListWindows)
		roles.GET("/:id", roleHandler.GetRole)
		roles.PUT("/:id", roleHandler.UpdateRole)
		roles.DELETE("/:id", roleHandler.DeleteRole)
		roles.POST("/:id/restore", roleHandler.RestoreRole)
		roles.GET("/:id/usage", roleHandler.Usage)
		roles.PUT("/:id/windows", roleHandler.SetWindows)
	}

	users := window(WindowSetupUsers)
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:id", userHandler.GetUser)
		users.PATCH("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.POST("/:id/restore", userHandler.RestoreUser)
	}

	orgs := window(WindowSetupOrganizations)
	{
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("/:id", orgHandler.GetOrganization)
		orgs.PUT("/:id", orgHandler.UpdateOrganization)
		orgs.DELETE("/:id", orgHandler.DeleteOrganization)
		orgs.POST("/:id/restore", orgHandler.RestoreOrganization)
		orgs.GET("/:id/departments", orgHandler.ListDepartments)
		orgs.POST("/:id/departments", orgHandler.CreateDepartment)
		orgs.PUT("/:id/departments/:departmentId", orgHandler.UpdateDepartment)
		orgs.DELETE("/:id/departments/:departmentId", orgHandler.DeleteDepartment)
	}

	orders := window(WindowOrders)
	{
		orders.GET("", orderHandler.ListOrders)
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/products", orderHandler.ListProducts)
		orders.POST("/products", orderHandler.CreateProduct)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id", orderHandler.UpdateOrder)
		orders.POST("/:id/confirm", orderHandler.ConfirmOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.DELETE("/:id", orderHandler.DeleteOrder)
		orders.POST("/:id/restore", orderHandler.RestoreOrder)
	}

	workOrders := window(WindowWorkOrders)
	{
		workOrders.GET("", workOrderHandler.ListWorkOrders)
		workOrders.POST("", workOrderHandler.CreateWorkOrder)
		workOrders.GET("/:id", workOrderHandler.GetWorkOrder)
		workOrders.POST("/:id/start", workOrderHandler.StartWorkOrder)
		workOrders.POST("/:id/complete", workOrderHandler.CompleteWorkOrder)
		workOrders.POST("/:id/cancel", workOrderHandler.CancelWorkOrder)
		workOrders.POST("/:id/finished-goods", workOrderHandler.RecordFinishedGood)
		workOrders.DELETE("/:id", workOrderHandler.DeleteWorkOrder)
	}

	deliveries := window(WindowDeliveryOrders)
	{
		deliveries.GET("", deliveryHandler.ListDeliveryOrders)
		deliveries.POST("", deliveryHandler.CreateDeliveryOrder)
		deliveries.GET("/:id", deliveryHandler.GetDeliveryOrder)
		deliveries.POST("/:id/ship", deliveryHandler.ShipDeliveryOrder)
		deliveries.POST("/:id/deliver", deliveryHandler.DeliverDeliveryOrder)
		deliveries.POST("/:id/cancel", deliveryHandler.CancelDeliveryOrder)
		deliveries.DELETE("/:id", deliveryHandler.DeleteDeliveryOrder)
	}

	materials := window(WindowRawMaterials)
	{
		materials.GET("", materialHandler.ListRawMaterials)
		materials.POST("", materialHandler.CreateRawMaterial)
		materials.GET("/low-stock", materialHandler.LowStock)
		materials.POST("/notify", materialHandler.Notify)
		materials.GET("/:id", materialHandler.GetRawMaterial)
		materials.PUT("/:id", materialHandler.UpdateRawMaterial)
		materials.POST("/:id/adjust", materialHandler.AdjustStock)
		materials.DELETE("/:id", materialHandler.DeleteRawMaterial)
		materials.POST("/:id/restore", materialHandler.RestoreRawMaterial)
	}

	return r
}
