package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tmhire/pourplan/core/model"
	"github.com/tmhire/pourplan/infra/logger"
)

// Config defines the connection parameters for the fleet notifier.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fleet/schedule"
	}
	if c.ClientID == "" {
		c.ClientID = "pourplan-notifier"
	}
}

// TripSheet is the per-vehicle payload published when a schedule is
// generated: only the trips assigned to that vehicle.
type TripSheet struct {
	ScheduleID string       `json:"schedule_id"`
	VehicleID  string       `json:"vehicle_id"`
	Policy     string       `json:"policy"`
	Trips      []model.Trip `json:"trips"`
}

// CancelNotice tells a vehicle its reserved window is released.
type CancelNotice struct {
	ScheduleID string    `json:"schedule_id"`
	VehicleID  string    `json:"vehicle_id"`
	Reason     string    `json:"reason,omitempty"`
	Time       time.Time `json:"time"`
}

// FleetNotifier publishes trip sheets and cancellations to the fleet over
// MQTT. Dispatchers see the same data through the schedule aggregate; this
// channel exists for in-cab terminals.
type FleetNotifier struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// New connects to the broker and returns a notifier.
func New(cfg Config) (*FleetNotifier, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	log := logger.New("fleet-notifier")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return &FleetNotifier{cli: cli, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// NotifySchedule publishes one trip sheet per vehicle in the table.
func (n *FleetNotifier) NotifySchedule(scheduleID, policy string, trips []model.Trip) error {
	byVehicle := make(map[string][]model.Trip)
	var order []string
	for _, t := range trips {
		if _, ok := byVehicle[t.VehicleID]; !ok {
			order = append(order, t.VehicleID)
		}
		byVehicle[t.VehicleID] = append(byVehicle[t.VehicleID], t)
	}
	for _, vid := range order {
		sheet := TripSheet{ScheduleID: scheduleID, VehicleID: vid, Policy: policy, Trips: byVehicle[vid]}
		if err := n.publish(fmt.Sprintf("%s/tm/%s", n.prefix, vid), sheet); err != nil {
			return err
		}
	}
	n.log.Infof("published trip sheets for schedule %s to %d vehicles", scheduleID, len(order))
	return nil
}

// NotifyCancel publishes a cancellation notice to each vehicle.
func (n *FleetNotifier) NotifyCancel(scheduleID, reason string, vehicleIDs []string, at time.Time) error {
	for _, vid := range vehicleIDs {
		notice := CancelNotice{ScheduleID: scheduleID, VehicleID: vid, Reason: reason, Time: at}
		if err := n.publish(fmt.Sprintf("%s/tm/%s/cancel", n.prefix, vid), notice); err != nil {
			return err
		}
	}
	return nil
}

func (n *FleetNotifier) publish(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := n.cli.Publish(topic, n.qos, false, b)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (n *FleetNotifier) Close() {
	n.cli.Disconnect(250)
}
