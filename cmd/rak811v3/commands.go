package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgekit/rak811"
)

func init() {
	rootCmd.AddCommand(
		versionCmd,
		helpCmd,
		runCmd,
		setConfigCmd,
		getConfigCmd,
		joinCmd,
		sendCmd,
		sendUARTCmd,
		sendP2PCmd,
		receiveP2PCmd,
	)

	sendCmd.Flags().IntP("port", "p", 1, "Port number to use (1-223)")
	sendCmd.Flags().Bool("binary", false, "Data is binary (hex encoded)")
	sendCmd.Flags().Bool("json", false, "Output downlink in JSON format")

	sendUARTCmd.Flags().Int("index", 3, "UART index to use (1, 3)")
	sendUARTCmd.Flags().Bool("binary", false, "Data is binary (hex encoded)")

	sendP2PCmd.Flags().Bool("binary", false, "Data is binary (hex encoded)")

	receiveP2PCmd.Flags().Duration("timeout", time.Minute, "Maximum wait for a message")
	receiveP2PCmd.Flags().Bool("json", false, "Output message in JSON format")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get module version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			version, err := device.Version()
			if err != nil {
				return err
			}
			fmt.Println(version)
			return nil
		})
	},
}

var helpCmd = &cobra.Command{
	Use:   "help-module",
	Short: "Get the module's command help",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			responses, err := device.Help()
			if err != nil {
				return err
			}
			for _, response := range responses {
				fmt.Println(response)
			}
			return nil
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Exit boot mode and enter normal mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.Run(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Module running")
			}
			return nil
		})
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set-config CONFIG",
	Short: "Execute a set_config command",
	Long: `Execute a set_config command.

The config string has the form <type>:<topic>[:<param>]..., e.g.
"lora:region:EU868", "lora:work_mode:0" or "device:restart".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			responses, err := device.SetConfig(args[0])
			if err != nil {
				return err
			}
			if verbose {
				slog.Info("Configuration set", "config", args[0])
			}
			for _, response := range responses {
				if response != "" {
					fmt.Println(response)
				}
			}
			return nil
		})
	},
}

var getConfigCmd = &cobra.Command{
	Use:   "get-config CONFIG",
	Short: "Get a configuration item",
	Long: `Get a configuration item.

The config string has the form <type>:<topic>[:<param>], e.g.
"device:status" or "lora:channel".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			responses, err := device.GetConfig(args[0])
			if err != nil {
				return err
			}
			for _, response := range responses {
				if response != "" {
					fmt.Println(response)
				}
			}
			return nil
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join the configured network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.Join(); err != nil {
				return err
			}
			if verbose {
				slog.Info("Joined")
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
		binary, _ := cmd.Flags().GetBool("binary")
		asJSON, _ := cmd.Flags().GetBool("json")

		data, err := payload(args[0], binary)
		if err != nil {
			return err
		}

		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.Send(data, port); err != nil {
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

			downlink := device.GetDownlink()
			if downlink.Len == 0 {
				// Confirmation without payload.
				if verbose {
					slog.Info("Send confirmed", "rssi", downlink.RSSI, "snr", downlink.SNR)
				}
				return nil
			}
			return printDownlink(downlink, asJSON)
		})
	},
}

var sendUARTCmd = &cobra.Command{
	Use:   "send-uart DATA",
	Short: "Send data over UART",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, _ := cmd.Flags().GetInt("index")
		binary, _ := cmd.Flags().GetBool("binary")

		data, err := payload(args[0], binary)
		if err != nil {
			return err
		}

		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.SendUART(data, index); err != nil {
				return err
			}
			if verbose {
				slog.Info("Data sent", "uart", index)
			}
			return nil
		})
	},
}

var sendP2PCmd = &cobra.Command{
	Use:   "send-p2p DATA",
	Short: "Send a LoRa P2P message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		binary, _ := cmd.Flags().GetBool("binary")

		data, err := payload(args[0], binary)
		if err != nil {
			return err
		}

		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.SendP2P(data); err != nil {
				return err
			}
			if verbose {
				slog.Info("Message sent")
			}
			return nil
		})
	},
}

var receiveP2PCmd = &cobra.Command{
	Use:   "receive-p2p",
	Short: "Wait for a LoRa P2P message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withDevice(func(device *rak811.DeviceV3) error {
			if err := device.ReceiveP2P(timeout); err != nil {
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
		slog.Info("Message received", "rssi", downlink.RSSI, "snr", downlink.SNR)
		fmt.Printf("Port: %d\n", downlink.Port)
		fmt.Printf("Data: %s\n", hex.EncodeToString(downlink.Data))
	} else {
		fmt.Println(hex.EncodeToString(downlink.Data))
	}
	return nil
}
