package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gopkg.in/yaml.v2"

	"github.com/iochen/lcgrewind/lcg"
	"github.com/iochen/lcgrewind/statsview"
)

var cfgFile string

func init() {
	flag.StringVar(&cfgFile, "config", "config.yaml", "Config file")
}

// maxSteps bounds n in requests, since a trace holds n+1 states.
const maxSteps = 1 << 20

// maxModulus keeps every stored value inside a postgres BIGINT.
const maxModulus = 1 << 63

type Config struct {
	Password      string         `yaml:"password"`
	Listen        string         `yaml:"listen"`
	TLSCert       string         `yaml:"tls_cert"`
	TLSKey        string         `yaml:"tls_key"`
	Postgres      string         `yaml:"postgres"`
	Generator     *lcg.Generator `yaml:"generator"`
	COS           *COS           `yaml:"cos"`
	Statsview     bool           `yaml:"statsview"`
	StatsviewAddr string         `yaml:"statsview_addr"`
}

func defaultConfig() *Config {
	return &Config{
		Listen: ":4004",
		Generator: &lcg.Generator{
			Modulus:    1<<30 - 1,
			Multiplier: 3,
		},
		COS:           &COS{},
		StatsviewAddr: "localhost:12600",
	}
}

// loadConfig reads a yaml config over the defaults and prepares the
// generator.
func loadConfig(b []byte) (*Config, error) {
	config := defaultConfig()
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, err
	}
	if config.Generator == nil {
		return nil, errors.New("no generator configured")
	}
	if config.Generator.Modulus >= maxModulus {
		return nil, fmt.Errorf("modulus %d does not fit a BIGINT column, it must be below 2^63",
			config.Generator.Modulus)
	}
	if err := config.Generator.Init(); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	flag.Parse()

	// check if config file exists
	// or it would create one
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		out, err := yaml.Marshal(defaultConfig())
		if err != nil {
			log.Fatalln(err)
		}
		err = ioutil.WriteFile(cfgFile, out, 0644)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println("Config file created!")
		return
	}

	// read config file
	bytes, err := ioutil.ReadFile(cfgFile)
	if err != nil {
		log.Fatalln(err)
	}
	// load config
	config, err := loadConfig(bytes)
	if err != nil {
		log.Fatalln(err)
	}

	// load postgres
	storage, err := New(config.Postgres)
	if err != nil {
		log.Fatalln(err)
	}
	defer storage.Close()

	// the first generator stored wins, so that recoveries stay comparable
	err = storage.InsertGeneratorIfNonExist(config.Generator)
	if err != nil {
		log.Fatalln(err)
	}
	config.Generator, err = storage.QueryGenerator()
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("generator: modulus %d, multiplier %d, increment %d, %d predecessors per step\n",
		config.Generator.Modulus, config.Generator.Multiplier, config.Generator.Increment, config.Generator.Branching())

	// load MinIO client
	mio, err := config.COS.NewMinIO()
	if err != nil {
		log.Fatalln(err)
	}

	if config.Statsview {
		if statsview.Available() {
			stop := statsview.Launch(config.StatsviewAddr, os.Stdout)
			defer stop()
		} else {
			log.Println("statsview requested but not built in, rebuild with -tags statsview")
		}
	}

	app := newApp(config, storage, mio)

	// listen and serve
	if config.TLSCert != "" {
		log.Fatal(app.ListenTLS(config.Listen, config.TLSCert, config.TLSKey))
	}
	log.Fatal(app.Listen(config.Listen))
}

type request struct {
	State      lcg.State   `json:"state"`
	Candidates []lcg.State `json:"candidates"`
	Known      []uint64    `json:"known"`
	Outputs    []uint64    `json:"outputs"`
	N          int         `json:"n"`
}

type stateResponse struct {
	State  lcg.State `json:"state"`
	Output uint64    `json:"output"`
	Key    string    `json:"key"`
}

type errorResponse struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Candidates []lcg.State `json:"candidates,omitempty"`
	Steps      *int        `json:"steps,omitempty"`
	Reached    *lcg.State  `json:"reached,omitempty"`
}

// domainErrors are caused by the request, not by the service.
var domainErrors = []error{
	lcg.ErrStateOutOfRange,
	lcg.ErrInvalidSteps,
	lcg.ErrNoPredecessor,
	lcg.ErrAmbiguousState,
	lcg.ErrInsufficientHistory,
	lcg.ErrNoMatch,
	lcg.ErrTooFewOutputs,
	lcg.ErrNotInvertible,
}

func errorHandler(ctx *fiber.Ctx, e error) error {
	resp := &errorResponse{}

	var ferr *fiber.Error
	switch {
	case errors.As(e, &ferr):
		resp.Code, resp.Message = ferr.Code, ferr.Message
	case errors.Is(e, sql.ErrNoRows):
		resp.Code, resp.Message = fiber.StatusNotFound, "not found"
	case isDomainError(e):
		resp.Code, resp.Message = fiber.StatusBadRequest, e.Error()

		var cerr *lcg.CandidateError
		if errors.As(e, &cerr) {
			resp.Candidates = cerr.Candidates
		}
		var werr *lcg.WalkError
		if errors.As(e, &werr) {
			resp.Steps, resp.Reached = &werr.Steps, &werr.Reached
		}
	default:
		log.Println(e)
		resp.Code, resp.Message = fiber.StatusInternalServerError, "internal server error"
	}

	return ctx.Status(resp.Code).JSON(resp)
}

func isDomainError(e error) bool {
	for _, target := range domainErrors {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

func parse(c *fiber.Ctx) (*request, error) {
	req := &request{}
	if err := c.BodyParser(req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request: "+err.Error())
	}
	if req.N < 0 || req.N > maxSteps {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("n must be within [0, %d]", maxSteps))
	}
	return req, nil
}

func newApp(config *Config, store RecoveryStore, exporter TraceExporter) *fiber.App {
	gen := config.Generator

	// create a go-fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	authenticated := func(c *fiber.Ctx) error {
		if c.Cookies("token") != config.Password {
			c.ClearCookie("token")
			return fiber.NewError(fiber.StatusForbidden, "authentication failed")
		}
		return c.Next()
	}

	// describe the generator
	app.Get("/generator", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"modulus":    gen.Modulus,
			"multiplier": gen.Multiplier,
			"increment":  gen.Increment,
			"branching":  gen.Branching(),
		})
	})

	// step once
	app.Post("/step", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		if !gen.Valid(req.State) {
			return fmt.Errorf("%w: %v", lcg.ErrStateOutOfRange, req.State)
		}
		next, out := gen.Step(req.State)
		return c.JSON(&stateResponse{State: next, Output: out, Key: Fingerprint(gen, next)})
	})

	// outputs of the next n steps
	app.Post("/project", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		if !gen.Valid(req.State) {
			return fmt.Errorf("%w: %v", lcg.ErrStateOutOfRange, req.State)
		}
		outputs := gen.ProjectForward(req.State, req.N)
		if outputs == nil {
			outputs = []uint64{}
		}
		return c.JSON(fiber.Map{"outputs": outputs})
	})

	// jump n steps ahead
	app.Post("/advance", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		if !gen.Valid(req.State) {
			return fmt.Errorf("%w: %v", lcg.ErrStateOutOfRange, req.State)
		}
		s := gen.Advance(req.State, uint64(req.N))
		return c.JSON(&stateResponse{State: s, Output: s.A, Key: Fingerprint(gen, s)})
	})

	// decode a key handed out by the other routes
	app.Get("/state/:key", func(c *fiber.Ctx) error {
		s, err := ParseFingerprint(gen, c.Params("key"))
		if errors.Is(err, lcg.ErrStateOutOfRange) {
			return err
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid key: "+err.Error())
		}
		return c.JSON(&stateResponse{State: s, Output: s.A, Key: Fingerprint(gen, s)})
	})

	// every state one step back
	app.Post("/predecessors", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		candidates, err := gen.EnumeratePredecessors(req.State)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"candidates": candidates})
	})

	// pick a candidate against observed outputs
	app.Post("/disambiguate", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		s, err := gen.Disambiguate(req.Candidates, req.Known)
		if err != nil {
			return err
		}
		return c.JSON(&stateResponse{State: s, Output: s.A, Key: Fingerprint(gen, s)})
	})

	// walk n steps back
	app.Post("/walkback", func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		trace, err := gen.WalkBackTrace(req.State, req.N, req.Known)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"state": trace[0],
			"key":   Fingerprint(gen, trace[0]),
			"trace": trace,
		})
	})

	// rebuild and store the states behind a run of outputs
	app.Post("/recover", authenticated, func(c *fiber.Ctx) error {
		req, err := parse(c)
		if err != nil {
			return err
		}
		if len(req.Outputs) > maxSteps {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("at most %d outputs", maxSteps))
		}
		rec, err := recoverTrace(gen, req.Outputs)
		if err != nil {
			return err
		}
		if err := store.InsertRecovery(rec); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"id":    rec.ID,
			"key":   rec.Key(),
			"trace": rec.Trace,
		})
	})

	// serve stored recoveries
	app.Get("/recovery/:id", authenticated, func(c *fiber.Ctx) error {
		rec, err := queryRecovery(store, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(rec)
	})

	app.Get("/recovery/:id/csv", authenticated, func(c *fiber.Ctx) error {
		rec, err := queryRecovery(store, c.Params("id"))
		if err != nil {
			return err
		}

		c.Type("csv", "utf-8")
		c.Set("Content-Disposition", "attachment; filename=\""+rec.Key()+".csv\"")
		return rec.WriteCSV(c)
	})

	// upload a stored trace and hand back a pre-signed link
	app.Post("/recovery/:id/export", authenticated, func(c *fiber.Ctx) error {
		rec, err := queryRecovery(store, c.Params("id"))
		if err != nil {
			return err
		}
		link, err := exportTrace(c.Context(), exporter, rec)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"url": link.String()})
	})

	return app
}

func queryRecovery(store RecoveryStore, raw string) (*Recovery, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id: "+raw)
	}
	return store.QueryRecovery(id)
}
