package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "health-record-access/internal/adapters/storage/memory"
	pg "health-record-access/internal/adapters/storage/postgres"
	"health-record-access/internal/demo"
	"health-record-access/internal/domain/directory"
	"health-record-access/internal/domain/permissions"
	"health-record-access/internal/domain/records"
	"health-record-access/internal/middleware"
	"health-record-access/internal/platform/logger"
	"health-record-access/internal/ports/auth"

	_ "health-record-access/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		orgRepo     directory.OrganizationRepository
		patientRepo directory.PatientRepository
		profRepo    directory.ProfessionalRepository
		recordRepo  records.Repository
		requestRepo permissions.RequestRepository
		grantRepo   permissions.GrantRepository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{"err": err.Error()})
			}
		}
	}

	if db != nil {
		orgRepo = pg.NewOrganizationsRepo(db)
		patientRepo = pg.NewPatientsRepo(db)
		profRepo = pg.NewProfessionalsRepo(db)
		recordRepo = pg.NewRecordsRepo(db)
		requestRepo = pg.NewRequestsRepo(db)
		grantRepo = pg.NewGrantsRepo(db)
	} else {
		orgRepo = mem.NewOrganizationRepo()
		patientRepo = mem.NewPatientRepo()
		profRepo = mem.NewProfessionalRepo()
		recordRepo = mem.NewRecordRepo()
		requestRepo = mem.NewRequestRepo()
		grantRepo = mem.NewGrantRepo()
	}

	// Services por módulo
	directorySvc := directory.NewService(orgRepo, patientRepo, profRepo)
	recordsSvc := records.NewService(recordRepo, directorySvc)
	permsSvc := permissions.NewService(requestRepo, grantRepo, directorySvc, recordsSvc)

	// Rutas por módulo
	directory.RegisterRoutes(r, directorySvc)
	records.RegisterRoutes(r, recordsSvc, permsSvc)
	permissions.RegisterRoutes(r, permsSvc)

	// Seeding de demo (dev)
	seeder := demo.NewSeeder(orgRepo, patientRepo, profRepo, recordRepo, requestRepo, log)
	r.Post("/demo/seed", func(w http.ResponseWriter, req *http.Request) {
		if err := seeder.Seed(req.Context()); err != nil {
			log.Error("demo seed failed", map[string]any{"err": err.Error()})
			http.Error(w, "seed failed", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("seeded"))
	})

	return r
}
