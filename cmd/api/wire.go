//go:build wireinject
// +build wireinject

// Wire依赖注入配置，修改后执行 `wire gen ./cmd/api` 重新生成 wire_gen.go
//
// 依赖链：Config → DB/Redis → Repository → Service/Manager → UseCase → Handler → gin.Engine

package main

import (
	"github.com/google/wire"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/infrastructure/config"
	paymentinfra "github.com/xiebiao/library/internal/infrastructure/payment"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 配置、日志、数据库、Redis
var infrastructureSet = wire.NewSet(
	config.Load,
	provideLogger,
	provideDB,
	provideRedis,
)

// repositorySet 仓储层
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewBorrowingRepository,
	mysql.NewPaymentRepository,
	mysql.NewLedger,
	mysql.NewTxManager,
)

// domainSet 领域服务与外部协作方（支付网关、通知）
var domainSet = wire.NewSet(
	provideUserService,
	book.NewService,
	paymentinfra.NewGateway,
	providePaymentManager,
	provideNotifier,
	appborrowing.SystemClock,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewMeUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewCreateBookUseCase,
	appbook.NewUpdateBookUseCase,
	appbook.NewDeleteBookUseCase,
	appborrowing.NewCreateBorrowingUseCase,
	appborrowing.NewReturnBorrowingUseCase,
	appborrowing.NewListBorrowingsUseCase,
	appborrowing.NewGetBorrowingUseCase,
	apppayment.NewListPaymentsUseCase,
	apppayment.NewGetPaymentUseCase,
)

// middlewareSet JWT与Session存储；同一个SessionStore同时充当登出黑名单
var middlewareSet = wire.NewSet(
	provideJWTManager,
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器与路由
var handlerSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewBorrowingHandler,
	handler.NewPaymentHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 组装整个应用，cleanup按创建的逆序释放资源
func InitializeApp() (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
