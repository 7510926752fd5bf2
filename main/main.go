package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/controller"
	"github.com/adammck/biped/components/telemetry"
	"github.com/adammck/biped/components/voltage"
	"github.com/adammck/biped/components/walk"
	fakesensor "github.com/adammck/biped/fake/sensor"
	fakeservos "github.com/adammck/biped/fake/servos"
	fakevoltage "github.com/adammck/biped/fake/voltage"
	"github.com/adammck/biped/sensors"
	"github.com/adammck/biped/servos"
	"github.com/adammck/dynamixel/network"
	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "main",
})

var (
	configPath = flag.String("config", "", "path to a TOML config file")
	portName   = flag.String("port", "", "the serial port path (overrides config)")
	debug      = flag.Bool("debug", false, "log debug messages and serial traffic")
	fake       = flag.Bool("fake", false, "run without any hardware attached")
	publish    = flag.Bool("telemetry", false, "publish tick reports over MQTT")
	dump       = flag.Bool("dump-config", false, "print the config and exit")

	forward = flag.Float64("forward", 0, "fixed forward velocity (m/s), instead of the gamepad")
	lateral = flag.Float64("lateral", 0, "fixed lateral velocity (m/s), instead of the gamepad")
	turn    = flag.Float64("turn", 0, "fixed turn rate (rad/s), instead of the gamepad")
)

// How long to keep ticking after shutdown is requested, to let the walk come
// to a stop before the servos are powered down.
const shutdownGrace = 3 * time.Second

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := biped.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = biped.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %s", err)
		}
	}

	if *portName != "" {
		cfg.Hardware.Port = *portName
	}

	if *dump {
		err := cfg.Encode(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	engine, err := walk.NewEngine(cfg)
	if err != nil {
		log.Fatal(err)
	}

	robot := biped.NewRobot()
	latest := &sensors.Latest{}
	fixed := controller.Fixed{Forward: *forward, Lateral: *lateral, Turn: *turn}

	var cmd walk.CommandSource = fixed
	var sink walk.JointSink
	var volts voltage.HasVoltage
	powerDown := func() {}

	if *fake {
		sink = fakeservos.New()
		volts = fakevoltage.New(12)

	} else {
		log.Infof("opening serial port %s", cfg.Hardware.Port)
		port, err := serial.Open(serial.OpenOptions{
			PortName:              cfg.Hardware.Port,
			BaudRate:              cfg.Hardware.BaudRate,
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       0,
			InterCharacterTimeout: 100,
		})
		if err != nil {
			log.Fatalf("opening serial port: %s", err)
		}
		defer port.Close()

		n := network.New(port)
		n.Debug = *debug
		n.Flush()

		log.Info("setting up servos")
		pool, err := servos.New(n, cfg.Hardware.Servos)
		if err != nil {
			log.Fatalf("setting up servos: %s", err)
		}

		sink = pool
		powerDown = pool.Shutdown

		v := pool.ByID(cfg.Hardware.VoltageServo)
		if v == nil {
			pool.Shutdown()
			log.Fatalf("no servo with id %d to read voltage from", cfg.Hardware.VoltageServo)
		}
		volts = v

		if fixed.Command().IsZero() {
			log.Infof("opening controller %s", cfg.Hardware.Controller)
			f, err := os.Open(cfg.Hardware.Controller)
			if err != nil {
				pool.Shutdown()
				log.Fatalf("opening controller: %s", err)
			}
			defer f.Close()

			ctrl := controller.New(robot, f, cfg.Velocity)
			robot.Add(ctrl)
			cmd = ctrl
		}
	}

	walker := walk.NewWalker(robot, engine, cmd, latest, sink)

	// There's no IMU driver yet, so the walk is always balanced against a
	// level body. The fake must tick before the walker to keep frames fresh.
	robot.Add(voltage.New(robot, volts, cfg.Hardware))
	robot.Add(fakesensor.New(walker, latest, 2*cfg.Step.ContactThreshold))
	robot.Add(walker)

	var tel *telemetry.Telemetry
	if *publish {
		client, err := telemetry.Connect(cfg.Hardware)
		if err != nil {
			powerDown()
			log.Fatal(err)
		}
		defer client.Disconnect(250)

		tel = telemetry.New(client, cfg.Hardware.Topic)
		walker.Observe(tel)
		robot.Add(tel)
	}

	log.Info("booting components")
	err = robot.Boot()
	if err != nil {
		powerDown()
		log.Fatalf("error while booting: %s", err)
	}

	// Catch both SIGINT (ctrl+c) and SIGTERM (kill/systemd), to allow the robot
	// to stop walking and power down its servos before exiting.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	t := time.NewTicker(time.Duration(cfg.Loop.Period * float64(time.Second)))
	defer t.Stop()

	log.Info("starting loop")
	var deadline time.Time

loop:
	for {
		select {
		case <-sig:
			log.Info("caught signal, shutting down")
			robot.Shutdown = true

		case now := <-t.C:
			robot.Tick(now)

			if robot.Shutdown {
				if deadline.IsZero() {
					log.Infof("shutdown requested, waiting up to %v", shutdownGrace)
					deadline = now.Add(shutdownGrace)
				}

				m := walker.State().Mode
				if m == biped.Idle || m == biped.Sitting || now.After(deadline) {
					break loop
				}
			}
		}
	}

	if tel != nil {
		tel.Close()
	}

	log.Info("powering down")
	powerDown()
}
