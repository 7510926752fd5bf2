package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adammck/biped"
	"github.com/adammck/biped/components/walk"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "telemetry",
})

// How long to wait for the broker to accept each sample.
const publishTimeout = time.Second

// Publisher is the part of an MQTT client which telemetry needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Sample is the JSON document published after each tick.
type Sample struct {
	Time         float64            `json:"time"`
	Mode         string             `json:"mode"`
	Support      string             `json:"support"`
	Phase        float64            `json:"phase,omitempty"`
	Duration     float64            `json:"duration,omitempty"`
	Queued       int                `json:"queued"`
	Com          [2]float64         `json:"com"`
	Height       float64            `json:"height"`
	Velocity     biped.WalkCommand  `json:"velocity"`
	Tilt         [2]float64         `json:"tilt"`
	Correction   biped.Correction   `json:"correction"`
	Retired      *biped.Step        `json:"retired,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Instability  bool               `json:"instability,omitempty"`
	DeadlineMiss bool               `json:"deadline_miss,omitempty"`
	Joints       biped.JointCommand `json:"joints"`
}

// MakeSample flattens the outcome of a tick.
func MakeSample(s biped.WalkState, r walk.Report) Sample {
	out := Sample{
		Time:         s.Time,
		Mode:         s.Mode.String(),
		Support:      s.Support.String(),
		Queued:       len(s.Queue),
		Com:          [2]float64{s.Com.Position.X, s.Com.Position.Y},
		Height:       s.Height,
		Velocity:     s.Velocity,
		Tilt:         [2]float64{s.Balance.Tilt.Roll, s.Balance.Tilt.Pitch},
		Correction:   s.Balance.Last,
		Retired:      r.Retired,
		Instability:  r.Instability,
		DeadlineMiss: r.DeadlineMiss,
		Joints:       s.LastJoints,
	}

	if s.Active != nil {
		out.Phase = s.Active.Phase
		out.Duration = s.Active.Duration
	}

	for _, err := range multierr.Errors(r.Warnings) {
		out.Warnings = append(out.Warnings, err.Error())
	}

	return out
}

// Telemetry publishes a sample of each tick to an MQTT topic. Observe never
// waits for the broker: samples are handed to a background goroutine, and if
// it falls behind, older samples are dropped in favour of newer ones.
type Telemetry struct {
	client Publisher
	topic  string
	ch     chan Sample
	done   chan struct{}
}

func New(c Publisher, topic string) *Telemetry {
	return &Telemetry{
		client: c,
		topic:  topic,
		ch:     make(chan Sample, 1),
		done:   make(chan struct{}),
	}
}

// Connect returns an MQTT client connected to the configured broker.
func Connect(cfg biped.HardwareConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	c := mqtt.NewClient(opts)
	t := c.Connect()
	if t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Broker, t.Error())
	}

	log.Infof("connected to %s", cfg.Broker)
	return c, nil
}

func (t *Telemetry) Boot() error {
	log.Infof("publishing to %s", t.topic)
	go t.run()
	return nil
}

func (t *Telemetry) Tick(now time.Time) error {
	return nil
}

// Observe queues a sample of the tick, replacing any which hasn't been sent.
func (t *Telemetry) Observe(s biped.WalkState, r walk.Report) {
	smp := MakeSample(s, r)

	select {
	case t.ch <- smp:
		return
	default:
	}

	select {
	case <-t.ch:
	default:
	}

	select {
	case t.ch <- smp:
	default:
	}
}

// Close stops the background goroutine once the pending sample is sent. The
// telemetry must not be observed after closing.
func (t *Telemetry) Close() {
	close(t.ch)
	<-t.done
}

func (t *Telemetry) run() {
	defer close(t.done)

	for smp := range t.ch {
		err := t.publish(smp)
		if err != nil {
			log.Warnf("publish: %s", err)
		}
	}
}

func (t *Telemetry) publish(smp Sample) error {
	buf, err := json.Marshal(smp)
	if err != nil {
		return err
	}

	tok := t.client.Publish(t.topic, 0, false, buf)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out after %v", publishTimeout)
	}

	return tok.Error()
}
