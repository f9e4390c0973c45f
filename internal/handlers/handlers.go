package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"propertyhub/internal/config"
	"propertyhub/internal/identity"
	"propertyhub/internal/middleware"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/policy"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *gorm.DB
	cache    *redis.Client
	store    service.ObjectStore
	provider identity.Provider

	userRepo        *repository.UserRepository
	orgRepo         *repository.OrganizationRepository
	eventRepo       *repository.EventRepository
	joinRequestRepo *repository.JoinRequestRepository

	auth          *service.AuthService
	organizations *service.OrganizationService
	properties    *service.PropertyService
	documents     *service.DocumentService
	events        *service.EventService
	leases        *service.LeaseService
	joinRequests  *service.JoinRequestService
}

// NewHandlerSet wires repositories and services over one database handle.
// cache may be nil; the health check then reports it as disabled.
func NewHandlerSet(
	log zerolog.Logger,
	db *gorm.DB,
	cache *redis.Client,
	store service.ObjectStore,
	provider identity.Provider,
	jobs queue.Publisher,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	contractRepo := repository.NewContractRepository(db)
	joinRequestRepo := repository.NewJoinRequestRepository(db)

	documents := service.NewDocumentService(documentRepo, store, cfg.Security.SignatureSecret, cfg.Storage.MaxUploadBytes, log)
	properties := service.NewPropertyService(resourceRepo, documents, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       db,
		cache:    cache,
		store:    store,
		provider: provider,

		userRepo:        userRepo,
		orgRepo:         orgRepo,
		eventRepo:       eventRepo,
		joinRequestRepo: joinRequestRepo,

		auth:          service.NewAuthService(provider, userRepo, orgRepo, log),
		organizations: service.NewOrganizationService(orgRepo, log),
		properties:    properties,
		documents:     documents,
		events:        service.NewEventService(eventRepo, resourceRepo, userRepo, log),
		leases:        service.NewLeaseService(contractRepo, userRepo, properties, log),
		joinRequests:  service.NewJoinRequestService(joinRequestRepo, userRepo, orgRepo, provider, jobs, log),
	}
}

// Register mounts every route on router, which is expected to be the /api group.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
	router.POST("/join-requests", h.SubmitJoinRequest)

	api := router.Group("")
	api.Use(middleware.Authenticate(h.provider, h.userRepo, h.cfg.Security.CookieName))

	api.GET("/me", allow(policy.MeRead), pipeline.Handle(h.Me))
	api.PUT("/me", allow(policy.MeUpdate), pipeline.HandleJSON(h.UpdateMe))
	api.PATCH("/me", allow(policy.MeUpdate), pipeline.HandleJSON(h.UpdateMe))

	events := api.Group("/events")
	events.GET("", allow(policy.EventsList), pipeline.Handle(h.ListEvents))
	events.POST("", allow(policy.EventsCreate), pipeline.HandleJSON(h.CreateEvent))
	events.GET("/:id", allow(policy.EventsRead), pipeline.Handle(h.GetEvent))
	events.PUT("/:id", allow(policy.EventsUpdate), pipeline.HandleJSON(h.UpdateEvent))
	events.PATCH("/:id", allow(policy.EventsUpdate), pipeline.HandleJSON(h.UpdateEvent))
	events.DELETE("/:id", allow(policy.EventsDelete), pipeline.Handle(h.DeleteEvent))
	events.POST("/:id/participants", allow(policy.EventsUpdate), pipeline.HandleJSON(h.AddEventParticipant))
	events.PUT("/:id/participants/:participantId", allow(policy.EventsUpdate), pipeline.HandleJSON(h.UpdateEventParticipant))
	events.DELETE("/:id/participants/:participantId", allow(policy.EventsUpdate), pipeline.Handle(h.RemoveEventParticipant))

	properties := api.Group("/properties")
	properties.GET("", allow(policy.PropertiesList), pipeline.Handle(h.ListProperties))
	properties.POST("", allow(policy.PropertiesCreate), pipeline.HandleJSON(h.CreateProperty))
	properties.GET("/:id", allow(policy.PropertiesRead), pipeline.Handle(h.GetProperty))
	properties.PUT("/:id", allow(policy.PropertiesUpdate), pipeline.HandleJSON(h.UpdateProperty))
	properties.PATCH("/:id", allow(policy.PropertiesUpdate), pipeline.HandleJSON(h.UpdateProperty))
	properties.DELETE("/:id", allow(policy.PropertiesDelete), pipeline.Handle(h.DeleteProperty))
	properties.GET("/:id/children", allow(policy.PropertiesRead), pipeline.Handle(h.ListPropertyChildren))
	properties.PUT("/:id/owners", allow(policy.PropertiesUpdate), pipeline.HandleJSON(h.ReplacePropertyOwners))
	properties.GET("/:id/documents", allow(policy.PropertiesDocuments), pipeline.Handle(h.ListPropertyDocuments))
	properties.POST("/:id/documents", allow(policy.PropertiesDocuments), pipeline.Handle(h.UploadPropertyDocument))
	properties.GET("/:id/documents/:documentId", allow(policy.PropertiesDocuments), pipeline.Handle(h.GetPropertyDocument))
	properties.DELETE("/:id/documents/:documentId", allow(policy.PropertiesDocuments), pipeline.Handle(h.DeletePropertyDocument))

	contracts := api.Group("/contracts")
	contracts.GET("", allow(policy.ContractsList), pipeline.Handle(h.ListContracts))
	contracts.POST("", allow(policy.ContractsWrite), pipeline.HandleJSON(h.CreateContract))
	contracts.GET("/:id", allow(policy.ContractsRead), pipeline.Handle(h.GetContract))
	contracts.PUT("/:id", allow(policy.ContractsWrite), pipeline.HandleJSON(h.UpdateContract))
	contracts.PATCH("/:id", allow(policy.ContractsWrite), pipeline.HandleJSON(h.UpdateContract))
	contracts.DELETE("/:id", allow(policy.ContractsWrite), pipeline.Handle(h.DeleteContract))
	contracts.GET("/:id/payments", allow(policy.ContractsRead), pipeline.Handle(h.ListContractPayments))
	contracts.POST("/:id/payments", allow(policy.PaymentsWrite), pipeline.HandleJSON(h.CreateContractPayment))
	contracts.PUT("/:id/payments/:paymentId", allow(policy.PaymentsWrite), pipeline.HandleJSON(h.UpdateContractPayment))

	users := api.Group("/users")
	users.GET("", allow(policy.UsersList), pipeline.Handle(h.ListUsers))
	users.POST("", allow(policy.UsersCreate), pipeline.HandleJSON(h.CreateUser))
	users.GET("/:id", allow(policy.UsersRead), pipeline.Handle(h.GetUser))
	users.PUT("/:id", allow(policy.UsersUpdate), pipeline.HandleJSON(h.UpdateUser))
	users.PATCH("/:id", allow(policy.UsersUpdate), pipeline.HandleJSON(h.UpdateUser))
	users.DELETE("/:id", allow(policy.UsersDelete), pipeline.Handle(h.DeleteUser))

	orgs := api.Group("/organizations")
	orgs.GET("", allow(policy.OrganizationsRead), pipeline.Handle(h.ListOrganizations))
	orgs.POST("", allow(policy.OrganizationsWrite), pipeline.HandleJSON(h.CreateOrganization))
	orgs.GET("/:id", allow(policy.OrganizationsRead), pipeline.Handle(h.GetOrganization))
	orgs.PUT("/:id", allow(policy.OrganizationsWrite), pipeline.HandleJSON(h.UpdateOrganization))
	orgs.PATCH("/:id", allow(policy.OrganizationsWrite), pipeline.HandleJSON(h.UpdateOrganization))
	orgs.DELETE("/:id", allow(policy.OrganizationsWrite), pipeline.Handle(h.DeleteOrganization))

	joins := api.Group("/join-requests")
	joins.GET("", allow(policy.JoinRequestsList), pipeline.Handle(h.ListJoinRequests))
	joins.GET("/:id", allow(policy.JoinRequestsList), pipeline.Handle(h.GetJoinRequest))
	joins.POST("/:id/approve", allow(policy.JoinRequestsReview), pipeline.Handle(h.ApproveJoinRequest))
	joins.POST("/:id/reject", allow(policy.JoinRequestsReview), pipeline.HandleJSON(h.RejectJoinRequest))
}

func allow(op policy.Operation) gin.HandlerFunc {
	return middleware.Authorize(op)
}
