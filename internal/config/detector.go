package config

import "time"

// DetectorConfig holds the occupancy detection settings.  The threshold
// and tunables were tuned against one recording (103x43 regions); treat
// them as per-camera values.
type DetectorConfig struct {
    Enabled        bool          // run the detection loop inside the HTTP server
    VideoPath      string        // recording played in a loop
    GeometryPath   string        // YAML spot geometry table
    FPS            int           // target frame rate for push sinks
    PixelThreshold int           // non-zero pixel count at or above which a spot is occupied
    BlockSize      int           // adaptive threshold neighbourhood (odd)
    Offset         float64       // adaptive threshold constant
    MedianKernel   int           // median filter aperture (odd)
    Method         string        // adaptive threshold weighting: gaussian | mean
    JPEGQuality    int           // quality of frames sent to stream viewers
    StoreTimeout   time.Duration // deadline for each persistence call made by the loop
}

// LoadDetectorConfig reads the DETECTOR_* variables.
func LoadDetectorConfig() DetectorConfig {
    return DetectorConfig{
        Enabled:        envBool("DETECTOR_ENABLED", true),
        VideoPath:      envStr("VIDEO_PATH", "carPark.mp4"),
        GeometryPath:   envStr("GEOMETRY_PATH", "spots.yaml"),
        FPS:            envInt("DETECTOR_FPS", 30),
        PixelThreshold: envInt("DETECTOR_PIXEL_THRESHOLD", 900),
        BlockSize:      envInt("DETECTOR_BLOCK_SIZE", 25),
        Offset:         float64(envInt("DETECTOR_OFFSET", 16)),
        MedianKernel:   envInt("DETECTOR_MEDIAN_KERNEL", 5),
        Method:         envStr("DETECTOR_METHOD", "gaussian"),
        JPEGQuality:    envInt("DETECTOR_JPEG_QUALITY", 80),
        StoreTimeout:   envDur("DETECTOR_STORE_TIMEOUT", 2*time.Second),
    }
}

// JobConfig controls the background housekeeping job.
type JobConfig struct {
    StatsInterval time.Duration  // how often occupancy is snapshotted
    RetryInterval time.Duration  // wait after a failed run
    GracePeriod   time.Duration  // how long after arrival time a booking is held
    ExpireEnabled bool           // release bookings whose grace period elapsed
    Location      *time.Location // zone of arrival times entered without an offset
}

// LoadJobConfig reads the JOB_* variables.
func LoadJobConfig() JobConfig {
    return JobConfig{
        StatsInterval: envDur("JOB_STATS_INTERVAL", 5*time.Minute),
        RetryInterval: envDur("JOB_RETRY_INTERVAL", time.Minute),
        GracePeriod:   envDur("BOOKING_GRACE_PERIOD", 10*time.Minute),
        ExpireEnabled: envBool("BOOKING_EXPIRE_ENABLED", true),
        Location:      envLoc("APP_TZ", time.Local),
    }
}
