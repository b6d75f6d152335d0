// Package docker benchmarks local Docker as a sandbox provider: create and
// start a container, copy one file into it, force-remove it.
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/p-arndt/sandmark/internal/bench"
)

const labelPrefix = "sandmark."

type Sampler struct {
	docker *client.Client
	image  string
	memMB  int
}

func New(image string, memLimitMB int) (*Sampler, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Sampler{docker: cli, image: image, memMB: memLimitMB}, nil
}

func (s *Sampler) Close() error {
	return s.docker.Close()
}

func (s *Sampler) Name() string { return "docker" }

// Ping verifies the Docker daemon is reachable.
func (s *Sampler) Ping(ctx context.Context) error {
	_, err := s.docker.Ping(ctx)
	return err
}

func (s *Sampler) Sample(ctx context.Context) (bench.Sample, error) {
	start := time.Now()

	name := "sandmark-" + uuid.NewString()
	resp, err := s.docker.ContainerCreate(ctx,
		&container.Config{
			Image: s.image,
			Cmd:   []string{"sleep", "3600"},
			Labels: map[string]string{
				labelPrefix + "managed": "true",
			},
		},
		&container.HostConfig{
			Resources: container.Resources{
				Memory: int64(s.memMB) * units.MiB,
			},
			Mounts: []mount.Mount{
				{
					Type:   mount.TypeTmpfs,
					Target: "/tmp",
					TmpfsOptions: &mount.TmpfsOptions{
						SizeBytes: 64 * units.MiB,
					},
				},
			},
		},
		nil, nil, name)
	if err != nil {
		return bench.Sample{
			TotalMs: bench.Milliseconds(time.Since(start)),
			Error:   fmt.Sprintf("container create: %v", err),
		}, nil
	}
	id := resp.ID
	defer func() {
		_ = s.docker.ContainerRemove(context.Background(), id, container.RemoveOptions{
			Force:         true,
			RemoveVolumes: true,
		})
	}()

	if err := s.docker.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return bench.Sample{
			TotalMs: bench.Milliseconds(time.Since(start)),
			Error:   fmt.Sprintf("container start: %v", err),
		}, nil
	}
	provisionMs := bench.Milliseconds(time.Since(start))

	writeStart := time.Now()
	archive, err := tarFile("sandmark-"+uuid.NewString()+".txt", []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	if err != nil {
		return bench.Sample{
			ProvisionMs: provisionMs,
			TotalMs:     bench.Milliseconds(time.Since(start)),
			Error:       fmt.Sprintf("file write: %v", err),
		}, nil
	}
	if err := s.docker.CopyToContainer(ctx, id, "/tmp", archive, container.CopyToContainerOptions{}); err != nil {
		return bench.Sample{
			ProvisionMs: provisionMs,
			TotalMs:     bench.Milliseconds(time.Since(start)),
			Error:       fmt.Sprintf("file write: %v", err),
		}, nil
	}

	return bench.Sample{
		ProvisionMs: provisionMs,
		FileOpMs:    bench.Milliseconds(time.Since(writeStart)),
		TotalMs:     bench.Milliseconds(time.Since(start)),
		Success:     true,
	}, nil
}

// tarFile wraps a single file in the tar archive format CopyToContainer
// expects.
func tarFile(name string, data []byte) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := tw.Write(data); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
