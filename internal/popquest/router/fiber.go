package router

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"github.com/popquest/popquest/internal/popquest/config"
	"github.com/popquest/popquest/internal/popquest/controller"
	"github.com/popquest/popquest/internal/popquest/router/middleware"
	"github.com/popquest/popquest/internal/popquest/types"
	"go.uber.org/zap"
)

type rulesEngine interface {
	Login(ctx context.Context, name string, role types.Role) (*types.User, error)
	Logout(ctx context.Context) error
	CurrentUser() (string, *types.User, error)
	CheckIn(ctx context.Context) (float64, error)
	CompleteTask(ctx context.Context) (float64, error)
	PlayGuess(ctx context.Context, guess int) (*controller.GuessResult, error)
	Redeem(ctx context.Context, code string) (float64, error)
	AdminAdjust(ctx context.Context, target string, delta float64) error
	AdminCreateCode(ctx context.Context, code string, points float64, role types.CodeRole) error
	AdminListUsers() ([]types.UserInfo, error)
	Close() error
}

type HttpRouter struct {
	controller rulesEngine
	*fiber.App
	appLogger *zap.Logger
	httpPort  string
	jwtSecret []byte
}

const internalServerErrorMessage = "Something went wrong on the server"
const badRequestMessage = "Malformed or invalid request data"

func (r *HttpRouter) Run() error {
	return r.App.Listen(":" + r.httpPort)
}

func (r *HttpRouter) Close() error {
	if err := r.controller.Close(); err != nil {
		r.appLogger.Error("controller.Close failed: ", zap.Error(err))
	}
	return r.App.Shutdown()
}

func (r *HttpRouter) Login(ctx *fiber.Ctx) error {
	request := &types.LoginRequest{}
	err := ctx.BodyParser(request)
	if err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	user, err := r.controller.Login(ctx.Context(), request.Name, request.Role)
	if errors.Is(err, controller.ErrEmptyName) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "A user name is required"})
	}
	if errors.Is(err, controller.ErrInvalidRole) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Role must be regular, vip or admin"})
	}
	if err != nil {
		r.appLogger.Error("controller.Login failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	token, err := r.createJWT(request.Name)
	if err != nil {
		r.appLogger.Error("createJWT failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "token": token, "user": user})
}

func (r *HttpRouter) Logout(ctx *fiber.Ctx) error {
	if err := r.controller.Logout(ctx.Context()); err != nil {
		r.appLogger.Error("controller.Logout failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (r *HttpRouter) Me(ctx *fiber.Ctx) error {
	name, user, err := r.controller.CurrentUser()
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if err != nil {
		r.appLogger.Error("controller.CurrentUser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "name": name, "user": user})
}

func (r *HttpRouter) CheckIn(ctx *fiber.Ctx) error {
	reward, err := r.controller.CheckIn(ctx.Context())
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrAlreadyCheckedIn) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Already checked in today"})
	}
	if err != nil {
		r.appLogger.Error("controller.CheckIn failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "reward": reward})
}

func (r *HttpRouter) CompleteTask(ctx *fiber.Ctx) error {
	reward, err := r.controller.CompleteTask(ctx.Context())
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if err != nil {
		r.appLogger.Error("controller.CompleteTask failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "reward": reward})
}

func (r *HttpRouter) PlayGuess(ctx *fiber.Ctx) error {
	request := &types.GuessRequest{}
	err := ctx.BodyParser(request)
	if err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	// A fractional guess never reaches the rules engine, so it cannot
	// consume a turn.
	if request.Guess == nil || *request.Guess != math.Trunc(*request.Guess) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Guess must be an integer between 1 and 5"})
	}
	result, err := r.controller.PlayGuess(ctx.Context(), int(*request.Guess))
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrGuessOutOfRange) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Guess must be an integer between 1 and 5"})
	}
	if err != nil {
		r.appLogger.Error("controller.PlayGuess failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "result": result})
}

func (r *HttpRouter) Redeem(ctx *fiber.Ctx) error {
	request := &types.RedeemRequest{}
	err := ctx.BodyParser(request)
	if err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	reward, err := r.controller.Redeem(ctx.Context(), request.Code)
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrEmptyCode) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "A gift code is required"})
	}
	if errors.Is(err, controller.ErrCodeNotFound) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "This gift code does not exist"})
	}
	if errors.Is(err, controller.ErrCodeVIPOnly) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "This gift code is for VIP users only"})
	}
	if errors.Is(err, controller.ErrCodeAlreadyRedeemed) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "You already redeemed this gift code"})
	}
	if err != nil {
		r.appLogger.Error("controller.Redeem failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success", "reward": reward})
}

func (r *HttpRouter) AdminListUsers(ctx *fiber.Ctx) error {
	users, err := r.controller.AdminListUsers()
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrNotAdmin) {
		ctx.Status(http.StatusForbidden)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Admin role required"})
	}
	if err != nil {
		r.appLogger.Error("controller.AdminListUsers failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	return ctx.JSON(users)
}

func (r *HttpRouter) AdminAdjust(ctx *fiber.Ctx) error {
	request := &types.AdjustRequest{}
	err := ctx.BodyParser(request)
	if err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	if request.Target == "" || request.Delta == nil {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": badRequestMessage})
	}
	err = r.controller.AdminAdjust(ctx.Context(), request.Target, *request.Delta)
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrNotAdmin) {
		ctx.Status(http.StatusForbidden)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Admin role required"})
	}
	if errors.Is(err, controller.ErrUserNotFound) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No user with that name exists"})
	}
	if errors.Is(err, controller.ErrInvalidDelta) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": badRequestMessage})
	}
	if err != nil {
		r.appLogger.Error("controller.AdminAdjust failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusOK)
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (r *HttpRouter) AdminCreateCode(ctx *fiber.Ctx) error {
	request := &types.CreateCodeRequest{}
	err := ctx.BodyParser(request)
	if err != nil {
		r.appLogger.Error("ctx.BodyParser failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	if request.Points == nil {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "A gift code needs a code and positive points"})
	}
	err = r.controller.AdminCreateCode(ctx.Context(), request.Code, *request.Points, request.Role)
	if errors.Is(err, controller.ErrNoSession) {
		ctx.Status(http.StatusUnauthorized)
		return ctx.JSON(fiber.Map{"status": "error", "message": "No active session"})
	}
	if errors.Is(err, controller.ErrNotAdmin) {
		ctx.Status(http.StatusForbidden)
		return ctx.JSON(fiber.Map{"status": "error", "message": "Admin role required"})
	}
	if errors.Is(err, controller.ErrEmptyCode) || errors.Is(err, controller.ErrInvalidPoints) || errors.Is(err, controller.ErrInvalidCodeRole) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "A gift code needs a code and positive points"})
	}
	if errors.Is(err, controller.ErrCodeAlreadyExist) {
		ctx.Status(http.StatusBadRequest)
		return ctx.JSON(fiber.Map{"status": "error", "message": "This gift code already exists"})
	}
	if err != nil {
		r.appLogger.Error("controller.AdminCreateCode failed: ", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return ctx.JSON(fiber.Map{"status": "error", "message": internalServerErrorMessage})
	}
	ctx.Status(http.StatusCreated)
	return ctx.JSON(fiber.Map{"status": "success"})
}

// createJWT issues the transport credential handed out at login. The name
// claim is informational: authorization is decided by the active session's
// role in the state, not by token identity.
func (r *HttpRouter) createJWT(name string) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["name"] = name
	claims["exp"] = time.Now().Add(time.Hour * 72).Unix()

	return token.SignedString(r.jwtSecret)
}

func CreateRouter(c rulesEngine, cfg *config.Config, logger *zap.Logger) *HttpRouter {
	appLogger := logger.Named("app")
	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestLogger(logger))

	r := &HttpRouter{controller: c, App: app, appLogger: appLogger, httpPort: cfg.HttpPort, jwtSecret: []byte(cfg.JWTSecret)}
	api := r.Group("/api/v1")
	api.Post("/login", r.Login)
	api.Post("/logout", middleware.Protected(r.jwtSecret), r.Logout)
	api.Get("/me", middleware.Protected(r.jwtSecret), r.Me)

	actions := api.Group("/actions", middleware.Protected(r.jwtSecret))
	actions.Post("/checkin", r.CheckIn)
	actions.Post("/task", r.CompleteTask)
	actions.Post("/guess", r.PlayGuess)

	codes := api.Group("/codes", middleware.Protected(r.jwtSecret))
	codes.Post("/redeem", r.Redeem)

	admin := api.Group("/admin", middleware.Protected(r.jwtSecret))
	admin.Get("/users", r.AdminListUsers)
	admin.Post("/adjust", r.AdminAdjust)
	admin.Post("/codes", r.AdminCreateCode)
	return r
}
