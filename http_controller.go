package auction

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

func RegisterAuctionRoutes[T any](app router.Router[T], opts ...AuctionControllerOption) {

	controller := NewAuctionController(opts...)

	app.
		Post(controller.Routes.Create, controller.Create).
		SetName("auctions.create")

	app.
		Get(controller.Routes.List, controller.List).
		SetName("auctions.list")

	app.
		Get(fmt.Sprintf("%s/:id", controller.Routes.Get), controller.Show).
		SetName("auctions.show")

	app.
		Post(fmt.Sprintf("%s/:id/bids", controller.Routes.Bid), controller.PlaceBid).
		SetName("auctions.bid")

	app.
		Post(controller.Routes.Process, controller.Process).
		SetName("auctions.process")
}

type AuctionControllerRoutes struct {
	Create  string
	List    string
	Get     string
	Bid     string
	Process string
}

type AuctionController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Notifier     Notifier
	Config       Config
	Routes       *AuctionControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuctionControllerOption func(*AuctionController) *AuctionController

func NewAuctionController(opts ...AuctionControllerOption) *AuctionController {
	c := &AuctionController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuctionControllerRoutes{
			Create:  "/auctions",
			List:    "/auctions",
			Get:     "/auctions",
			Bid:     "/auctions",
			Process: "/auctions/process",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auction controller...")
	}

	return c
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AuctionControllerOption {
	return func(c *AuctionController) *AuctionController {
		c.Repo = repo
		return c
	}
}

// WithControllerNotifier sets the notifier used by the process route.
func WithControllerNotifier(n Notifier) AuctionControllerOption {
	return func(c *AuctionController) *AuctionController {
		c.Notifier = n
		return c
	}
}

// WithControllerConfig sets the engine configuration.
func WithControllerConfig(cfg Config) AuctionControllerOption {
	return func(c *AuctionController) *AuctionController {
		c.Config = cfg
		return c
	}
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuctionControllerOption {
	return func(c *AuctionController) *AuctionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// CreateAuctionRequest payload
type CreateAuctionRequest struct {
	Title  string `form:"title" json:"title"`
	Status string `form:"status" json:"status"`
}

// Validate will run validation rules
func (r CreateAuctionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
			validation.Length(TitleMinLength, 200),
		),
		validation.Field(
			&r.Status,
			validation.Required,
			validation.In(string(StatusOpen)),
		),
	)
}

func (a *AuctionController) Create(ctx router.Context) error {
	payload := new(CreateAuctionRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create auction parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("create auction validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "failed to validate payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUCTION CREATE ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	var record *Auction

	req := CreateAuctionMessage{
		Title:  payload.Title,
		Status: AuctionStatus(payload.Status),
		OnResponse: func(created *Auction) {
			record = created
		},
	}

	createAuction := NewCreateAuctionHandler(a.Repo, WithCreateAuctionOptions(a.auctionOptions()...))
	if err := createAuction.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("create auction error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "Auction created",
		"auction": record,
	})
}

func (a *AuctionController) List(ctx router.Context) error {
	records, err := a.Repo.Auctions().ListAll(ctx.Context())
	if err != nil {
		a.Logger.Error("list auctions error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"auctions": records,
	})
}

func (a *AuctionController) Show(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "invalid auction id",
		})
	}

	record, err := a.Repo.Auctions().Get(ctx.Context(), id)
	if err != nil {
		a.Logger.Error("show auction error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"auction": record,
	})
}

// PlaceBidRequest payload
type PlaceBidRequest struct {
	Amount float64 `form:"amount" json:"amount"`
}

// Validate will run validation rules
func (r PlaceBidRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Amount,
			validation.Min(0.0),
		),
	)
}

func (a *AuctionController) PlaceBid(ctx router.Context) error {
	auctionID := ctx.Param("id", "")
	payload := new(PlaceBidRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("place bid parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "failed to parse body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("place bid validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "failed to validate payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *PlaceBidResponse

	req := PlaceBidMessage{
		AuctionID: auctionID,
		Amount:    payload.Amount,
		OnResponse: func(resp *PlaceBidResponse) {
			res = resp
		},
	}

	placeBid := NewPlaceBidHandler(a.Repo)
	if err := placeBid.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("place bid error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Bid placed",
		"bid":     res,
	})
}

// ProcessRequest carries the sweep trigger timestamp.
type ProcessRequest struct {
	Now time.Time `form:"now" json:"now"`
}

func (a *AuctionController) Process(ctx router.Context) error {
	payload := new(ProcessRequest)

	// body is optional, a bare trigger means "now"
	if err := ctx.Bind(payload); err != nil {
		payload.Now = time.Time{}
	}

	var res *ProcessAuctionsResponse

	req := ProcessAuctionsMessage{
		Now: payload.Now,
		OnResponse: func(resp *ProcessAuctionsResponse) {
			res = resp
		},
	}

	opts := []ProcessAuctionsOption{WithProcessAuctionsLogger(a.Logger)}
	if a.Config != nil {
		opts = append(opts, WithProcessAuctionsConfig(a.Config))
	}

	process := NewProcessAuctionsHandler(a.Repo, a.Notifier, opts...)
	if err := process.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("process auctions error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Auctions processed",
		"report":  res,
	})
}

func (a *AuctionController) auctionOptions() []AuctionOption {
	if a.Config == nil {
		return nil
	}
	return []AuctionOption{WithAuctionDuration(a.Config.GetAuctionDuration())}
}

// FormatValidationErrorToMap flattens ozzo validation errors for JSON output
func FormatValidationErrorToMap(err error) map[string]string {
	result := map[string]string{}

	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				result[field] = fieldErr.Error()
			}
		}
		return result
	}

	if err != nil {
		result["payload"] = err.Error()
	}

	return result
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		code := richErr.Code
		if code == 0 {
			code = fiber.StatusInternalServerError
		}
		return c.JSON(code, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}

	return c.JSON(fiber.StatusInternalServerError, map[string]any{
		"error": err.Error(),
	})
}
