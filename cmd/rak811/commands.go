package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgekit/rak811"
)

func init() {
	rootCmd.AddCommand(
		versionCmd,
		sleepCmd,
		wakeUpCmd,
		resetCmd,
		reloadCmd,
		modeCmd,
		recvExCmd,
		bandCmd,
		setConfigCmd,
		getConfigCmd,
		joinOTAACmd,
		joinABPCmd,
		signalCmd,
		drCmd,
		linkCntCmd,
		abpInfoCmd,
		sendCmd,
		rfConfigCmd,
		txcCmd,
		rxcCmd,
		txStopCmd,
		rxStopCmd,
		rxGetCmd,
		radioStatusCmd,
		clearRadioStatusCmd,
	)

	sendCmd.Flags().IntP("port", "p", 1, "Port number to use (1-223)")
	sendCmd.Flags().Bool("confirm", false, "Regular or confirmed send")
	sendCmd.Flags().Bool("binary", false, "Data is binary (hex encoded)")
	sendCmd.Flags().Bool("json", false, "Output downlink in JSON format")

	txcCmd.Flags().Int("cnt", 1, "Send message cnt times")
	txcCmd.Flags().Duration("interval", time.Minute, "Interval between messages")
	txcCmd.Flags().Bool("binary", false, "Data is binary (hex encoded)")

	rxGetCmd.Flags().Duration("timeout", time.Minute, "Maximum wait for a message")
	rxGetCmd.Flags().Bool("json", false, "Output message in JSON format")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get module version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			version, err := device.Version()
			if err != nil {
				return err
			}
			fmt.Println(version)
			return nil
		})
	},
}

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Enter sleep mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.Sleep(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Sleeping")
			}
			return nil
		})
	},
}

var wakeUpCmd = &cobra.Command{
	Use:   "wake-up",
	Short: "Wake up the module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.WakeUp(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Awake")
			}
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:       "reset {module|lora}",
	Short:     "Reset the module or the LoRaWan stack",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"module", "lora"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := rak811.ResetModule
		if args[0] == "lora" {
			mode = rak811.ResetLoRa
		}
		return withDevice(func(device *rak811.Device) error {
			if err := device.Reset(mode); err != nil {
				return err
			}
			if verbose {
				slog.Info("Reset complete", "target", args[0])
			}
			return nil
		})
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Set LoraWan and LoraP2P configurations to default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.Reload(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Configuration reloaded")
			}
			return nil
		})
	},
}

var modeCmd = &cobra.Command{
	Use:       "mode [LoRaWan|LoRaP2P]",
	Short:     "Get or set the module mode",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"LoRaWan", "LoRaP2P"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if len(args) == 0 {
				mode, err := device.Mode()
				if err != nil {
					return err
				}
				if mode == rak811.ModeLoRaWan {
					fmt.Println("LoRaWan")
				} else {
					fmt.Println("LoRaP2P")
				}
				return nil
			}

			mode := rak811.ModeLoRaWan
			if strings.EqualFold(args[0], "LoRaP2P") {
				mode = rak811.ModeLoRaP2P
			}
			if err := device.SetMode(mode); err != nil {
				return err
			}
			if verbose {
				slog.Info("Mode set", "mode", args[0])
			}
			return nil
		})
	},
}

var recvExCmd = &cobra.Command{
	Use:       "recv-ex [enable|disable]",
	Short:     "Get or set RSSI and SNR reporting on receive",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"enable", "disable"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if len(args) == 0 {
				enabled, err := device.RecvEx()
				if err != nil {
					return err
				}
				if enabled {
					fmt.Println("enabled")
				} else {
					fmt.Println("disabled")
				}
				return nil
			}

			if err := device.SetRecvEx(args[0] == "enable"); err != nil {
				return err
			}
			if verbose {
				slog.Info("RSSI/SNR report on receive", "state", args[0])
			}
			return nil
		})
	},
}

var bandCmd = &cobra.Command{
	Use:       "band [region]",
	Short:     "Get or set the LoRaWan region",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"EU868", "US915", "AU915", "KR920", "AS923", "IN865"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if len(args) == 0 {
				band, err := device.Band()
				if err != nil {
					return err
				}
				fmt.Println(band)
				return nil
			}

			if err := device.SetBand(args[0]); err != nil {
				return err
			}
			if verbose {
				slog.Info("Band set", "region", args[0])
			}
			return nil
		})
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set-config KEY=VALUE...",
	Short: "Set LoraWan configuration values",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := make(map[string]string, len(args))
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid key=value pair %q", arg)
			}
			config[key] = value
		}
		return withDevice(func(device *rak811.Device) error {
			if err := device.SetConfig(config); err != nil {
				return err
			}
			if verbose {
				slog.Info("LoRaWan parameters set")
			}
			return nil
		})
	},
}

var getConfigCmd = &cobra.Command{
	Use:   "get-config KEY",
	Short: "Get a LoraWan configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			value, err := device.GetConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		})
	},
}

var joinOTAACmd = &cobra.Command{
	Use:   "join-otaa",
	Short: "Join the configured network in OTAA mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.JoinOTAA(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Joined in OTAA mode")
			}
			return nil
		})
	},
}

var joinABPCmd = &cobra.Command{
	Use:   "join-abp",
	Short: "Join the configured network in ABP mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.JoinABP(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Joined in ABP mode")
			}
			return nil
		})
	},
}

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Get RSSI and SNR of the latest received packet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			rssi, snr, err := device.Signal()
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("RSSI: %d SNR: %d\n", rssi, snr)
			} else {
				fmt.Printf("%d %d\n", rssi, snr)
			}
			return nil
		})
	},
}

var drCmd = &cobra.Command{
	Use:   "dr [rate]",
	Short: "Get or set the next send data rate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if len(args) == 0 {
				dr, err := device.DR()
				if err != nil {
					return err
				}
				fmt.Println(dr)
				return nil
			}

			dr, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid data rate %q", args[0])
			}
			if err := device.SetDR(dr); err != nil {
				return err
			}
			if verbose {
				slog.Info("Data rate set", "dr", dr)
			}
			return nil
		})
	},
}

var linkCntCmd = &cobra.Command{
	Use:   "link-cnt",
	Short: "Get the uplink and downlink counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			up, down, err := device.LinkCnt()
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("Uplink: %d Downlink: %d\n", up, down)
			} else {
				fmt.Printf("%d %d\n", up, down)
			}
			return nil
		})
	},
}

var abpInfoCmd = &cobra.Command{
	Use:   "abp-info",
	Short: "Get the information needed to re-join in ABP mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			info, err := device.ABPInfo()
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("NetworkID: %s\n", info.NetworkID)
				fmt.Printf("DevAddr: %s\n", info.DevAddr)
				fmt.Printf("NwkSKey: %s\n", info.NwkSKey)
				fmt.Printf("AppSKey: %s\n", info.AppSKey)
			} else {
				fmt.Printf("%s %s %s %s\n", info.NetworkID, info.DevAddr, info.NwkSKey, info.AppSKey)
			}
			return nil
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send DATA",
	Short: "Send a LoRaWan message and check for downlink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		confirm, _ := cmd.Flags().GetBool("confirm")
		binary, _ := cmd.Flags().GetBool("binary")
		asJSON, _ := cmd.Flags().GetBool("json")

		data, err := payload(args[0], binary)
		if err != nil {
			return err
		}

		return withDevice(func(device *rak811.Device) error {
			if err := device.Send(data, confirm, port); err != nil {
				return err
			}
			if verbose {
				slog.Info("Message sent")
			}

			if device.NbDownlinks() == 0 {
				if verbose {
					slog.Info("No downlink available")
				}
				return nil
			}
			return printDownlink(device.GetDownlink(), asJSON)
		})
	},
}

var rfConfigCmd = &cobra.Command{
	Use:   "rf-config [KEY=VALUE...]",
	Short: "Get or set the LoraP2P configuration",
	Long: `Get or set the LoraP2P configuration.

Without argument the current configuration is printed. The following
keys can be set; unspecified keys keep their previous value:
  freq:  frequency in MHz, range 860.000-929.900
  sf:    spread factor, range 6-12
  bw:    band width, 0:125KHz, 1:250KHz, 2:500KHz
  cr:    coding rate, 1:4/5, 2:4/6, 3:4/7, 4:4/8
  prlen: preamble length, range 8-65536
  pwr:   transmit power, range 5-20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			config, err := device.RFConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Printf("freq: %.3f sf: %d bw: %d cr: %d prlen: %d pwr: %d\n",
					config.Freq, config.SF, config.BW, config.CR, config.PRLen, config.Power)
				return nil
			}

			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid key=value pair %q", arg)
				}
				if err := applyRFConfig(&config, key, value); err != nil {
					return err
				}
			}
			if err := device.SetRFConfig(config); err != nil {
				return err
			}
			if verbose {
				slog.Info("RF configuration set")
			}
			return nil
		})
	},
}

var txcCmd = &cobra.Command{
	Use:   "txc DATA",
	Short: "Send a LoraP2P message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cnt, _ := cmd.Flags().GetInt("cnt")
		interval, _ := cmd.Flags().GetDuration("interval")
		binary, _ := cmd.Flags().GetBool("binary")

		data, err := payload(args[0], binary)
		if err != nil {
			return err
		}

		return withDevice(func(device *rak811.Device) error {
			if err := device.Txc(data, cnt, interval); err != nil {
				return err
			}
			if verbose {
				slog.Info("Message sent", "cnt", cnt)
			}
			return nil
		})
	},
}

var rxcCmd = &cobra.Command{
	Use:   "rxc",
	Short: "Set the module in LoraP2P receive mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.Rxc(true); err != nil {
				return err
			}
			if verbose {
				slog.Info("Module set in receive mode")
			}
			return nil
		})
	},
}

var txStopCmd = &cobra.Command{
	Use:   "tx-stop",
	Short: "Stop LoraP2P TX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.TxStop(); err != nil {
				return err
			}
			if verbose {
				slog.Info("LoraP2P TX stopped")
			}
			return nil
		})
	},
}

var rxStopCmd = &cobra.Command{
	Use:   "rx-stop",
	Short: "Stop LoraP2P RX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.RxStop(); err != nil {
				return err
			}
			if verbose {
				slog.Info("LoraP2P RX stopped")
			}
			return nil
		})
	},
}

var rxGetCmd = &cobra.Command{
	Use:   "rx-get",
	Short: "Wait for a LoraP2P message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withDevice(func(device *rak811.Device) error {
			if err := device.RxGet(timeout); err != nil {
				return err
			}
			if device.NbDownlinks() == 0 {
				if verbose {
					slog.Info("No message available")
				}
				return nil
			}
			return printDownlink(device.GetDownlink(), asJSON)
		})
	},
}

var radioStatusCmd = &cobra.Command{
	Use:   "radio-status",
	Short: "Get radio statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			status, err := device.RadioStatus()
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("TxSuccessCnt: %d\n", status.TxSuccessCnt)
				fmt.Printf("TxErrCnt: %d\n", status.TxErrCnt)
				fmt.Printf("RxSuccessCnt: %d\n", status.RxSuccessCnt)
				fmt.Printf("RxTimeOutCnt: %d\n", status.RxTimeoutCnt)
				fmt.Printf("RxErrCnt: %d\n", status.RxErrCnt)
				fmt.Printf("RSSI: %d\n", status.RSSI)
				fmt.Printf("SNR: %d\n", status.SNR)
			} else {
				fmt.Printf("%d %d %d %d %d %d %d\n",
					status.TxSuccessCnt, status.TxErrCnt,
					status.RxSuccessCnt, status.RxTimeoutCnt, status.RxErrCnt,
					status.RSSI, status.SNR)
			}
			return nil
		})
	},
}

var clearRadioStatusCmd = &cobra.Command{
	Use:   "clear-radio-status",
	Short: "Clear radio statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.Device) error {
			if err := device.ClearRadioStatus(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Radio statistics cleared")
			}
			return nil
		})
	},
}

// payload converts the data argument to bytes, decoding hex when the
// binary flag is set.
func payload(data string, binary bool) ([]byte, error) {
	if !binary {
		return []byte(data), nil
	}
	decoded, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid binary data: %w", err)
	}
	return decoded, nil
}

func printDownlink(downlink *rak811.Downlink, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(struct {
			Port int    `json:"port"`
			RSSI int    `json:"rssi"`
			SNR  int    `json:"snr"`
			Len  int    `json:"len"`
			Data string `json:"data"`
		}{
			Port: downlink.Port,
			RSSI: downlink.RSSI,
			SNR:  downlink.SNR,
			Len:  downlink.Len,
			Data: hex.EncodeToString(downlink.Data),
		}, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if verbose {
		slog.Info("Downlink received")
		fmt.Printf("Port: %d\n", downlink.Port)
		if downlink.RSSI != 0 {
			fmt.Printf("RSSI: %d\n", downlink.RSSI)
			fmt.Printf("SNR: %d\n", downlink.SNR)
		}
		fmt.Printf("Data: %s\n", hex.EncodeToString(downlink.Data))
	} else {
		fmt.Println(hex.EncodeToString(downlink.Data))
	}
	return nil
}

// applyRFConfig sets a single LoraP2P parameter on config.
func applyRFConfig(config *rak811.RFConfig, key, value string) error {
	if key == "freq" {
		freq, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid freq %q", value)
		}
		config.Freq = freq
		return nil
	}

	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q", key, value)
	}
	switch key {
	case "sf":
		config.SF = v
	case "bw":
		config.BW = v
	case "cr":
		config.CR = v
	case "prlen":
		config.PRLen = v
	case "pwr":
		config.Power = v
	default:
		return fmt.Errorf("unknown rf_config key %q", key)
	}
	return nil
}
