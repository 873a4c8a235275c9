package cutset

// EngineVersion is reported by the CLI and stamped nowhere else;
// selection identity comes from config fingerprints, not versions.
const EngineVersion = "0.1.0"
